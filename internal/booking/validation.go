package booking

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"romaantica/internal/models"
)

// User-facing messages.
const (
	MsgStepIncomplete   = "Compila tutti i campi richiesti per continuare"
	MsgMissingFields    = "Compila tutti i campi obbligatori"
	MsgInvalidEmail     = "Email non valida"
	MsgInvalidPhone     = "Numero di telefono non valido"
	MsgInvalidTime      = "Orario non valido"
	MsgInvalidGuests    = "Numero di ospiti non valido"
	MsgNoConnection     = "Impossibile contattare il server. Verifica che l'API sia avviata."
	MsgGenericFailure   = "Errore durante la prenotazione. Riprova più tardi."
	msgSlotFullFormat   = "Spiacenti, l'orario %s è già al completo per questa data."
	msgDateRangeFormat  = "Seleziona una data compresa tra il %s e il %s"
	msgDateInvalidInput = "Data non valida"
)

// Reason classifies a validation failure.
type Reason string

const (
	ReasonStepIncomplete Reason = "step_incomplete"
	ReasonMissingFields  Reason = "missing_fields"
	ReasonEmail          Reason = "email"
	ReasonPhone          Reason = "phone"
	ReasonSlotFull       Reason = "slot_full"
	ReasonTime           Reason = "time"
	ReasonDate           Reason = "date"
	ReasonGuests         Reason = "guests"
)

// ValidationError is a recoverable, user-facing input error.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(reason Reason, msg string) *ValidationError {
	return &ValidationError{Reason: reason, Message: msg}
}

// SlotFullMessage is the message shown when t cannot host more guests.
func SlotFullMessage(t string) string {
	return fmt.Sprintf(msgSlotFullFormat, t)
}

var (
	// Unicode spaces count as whitespace too, so "a\u00a0b@c.d" is rejected.
	emailRegex = regexp.MustCompile(`^[^\s\p{Zs}\x{FEFF}\x{2028}\x{2029}@]+@[^\s\p{Zs}\x{FEFF}\x{2028}\x{2029}@]+\.[^\s\p{Zs}\x{FEFF}\x{2028}\x{2029}@]+$`)
	phoneRegex = regexp.MustCompile(`\d{10,}`)
)

// IsStepValid reports whether the draft satisfies the fields of step.
func IsStepValid(d models.DraftBooking, step Step) bool {
	switch step {
	case StepDateTime:
		return d.Date != "" && d.Time != ""
	case StepPartySize:
		return d.NumberOfGuests > 0
	case StepContact:
		return d.CustomerName != "" && d.CustomerEmail != "" && d.CustomerPhone != ""
	default:
		return false
	}
}

// ValidEmail reports whether email looks like local@domain.tld.
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidPhone reports whether phone holds at least ten consecutive digits once
// whitespace is removed.
func ValidPhone(phone string) bool {
	return phoneRegex.MatchString(strings.Join(strings.Fields(phone), ""))
}

// ValidGuests reports whether n is one of GuestOptions.
func ValidGuests(n int) bool {
	return n >= MinGuests && n <= MaxGuests
}

// ValidTime reports whether t is an "HH:MM" time of day.
func ValidTime(t string) bool {
	if len(t) != len(models.TimeLayout) {
		return false
	}
	_, err := time.Parse(models.TimeLayout, t)
	return err == nil
}

// ValidateContact checks the draft before submission.
func ValidateContact(d models.DraftBooking) *ValidationError {
	if !IsStepValid(d, StepContact) {
		return invalid(ReasonMissingFields, MsgMissingFields)
	}
	if !ValidEmail(d.CustomerEmail) {
		return invalid(ReasonEmail, MsgInvalidEmail)
	}
	if !ValidPhone(d.CustomerPhone) {
		return invalid(ReasonPhone, MsgInvalidPhone)
	}
	return nil
}

// validateDate checks that date is an ISO day inside [minDate, maxDate].
// The bounds use the same layout, so string comparison orders them.
func validateDate(date, minDate, maxDate string) *ValidationError {
	if len(date) != len(models.DateLayout) {
		return invalid(ReasonDate, msgDateInvalidInput)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return invalid(ReasonDate, msgDateInvalidInput)
	}
	if (minDate != "" && date < minDate) || (maxDate != "" && date > maxDate) {
		return invalid(ReasonDate, fmt.Sprintf(msgDateRangeFormat, displayDate(minDate), displayDate(maxDate)))
	}
	return nil
}

func displayDate(iso string) string {
	t, err := time.Parse(models.DateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format("02/01/2006")
}

// userMessenger is implemented by backend errors carrying a message meant for the customer.
type userMessenger interface {
	UserMessage() string
}

// statusCoder is implemented by backend errors carrying a transport status;
// zero means no response was received.
type statusCoder interface {
	StatusCode() int
}

// SubmitErrorMessage turns a backend failure into the message shown to the customer.
func SubmitErrorMessage(err error) string {
	var um userMessenger
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() == 0 {
		return MsgNoConnection
	}
	return MsgGenericFailure
}
