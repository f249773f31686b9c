package booking

import (
	"romaantica/internal/models"
)

// Event is an input to Apply.
type Event interface {
	event()
}

// Started begins a session; MinDate and MaxDate are ISO days.
type Started struct {
	MinDate string
	MaxDate string
}

type DateChanged struct{ Date string }

type GuestsChanged struct{ Guests int }

type ContactChanged struct {
	Field Field
	Value string
}

type TimeSelected struct{ Time string }

type NextRequested struct{}

type PrevRequested struct{}

type SubmitRequested struct{}

// SlotsLoaded carries the response to the slot request identified by Token.
type SlotsLoaded struct {
	Token uint64
	Slots []models.TimeSlot
}

type SubmitSucceeded struct{ Booking models.BookingRecord }

type SubmitFailed struct{ Err error }

func (Started) event()         {}
func (DateChanged) event()     {}
func (GuestsChanged) event()   {}
func (ContactChanged) event()  {}
func (TimeSelected) event()    {}
func (NextRequested) event()   {}
func (PrevRequested) event()   {}
func (SubmitRequested) event() {}
func (SlotsLoaded) event()     {}
func (SubmitSucceeded) event() {}
func (SubmitFailed) event()    {}

// Command is a side effect requested by Apply and executed by the Controller.
type Command interface {
	command()
}

// LoadSlots asks for the slot set of Date and Guests.
type LoadSlots struct {
	Token  uint64
	Date   string
	Guests int
}

// SubmitBooking asks the backend to store Draft.
type SubmitBooking struct{ Draft models.DraftBooking }

// ScrollTo asks the host to bring Target into view.
type ScrollTo struct{ Target string }

// ScheduleRedirect asks for a delayed navigation to Route.
type ScheduleRedirect struct{ Route Route }

// RejectInput reports a validation failure; the state already holds its message.
type RejectInput struct{ Err *ValidationError }

func (LoadSlots) command()        {}
func (SubmitBooking) command()    {}
func (ScrollTo) command()         {}
func (ScheduleRedirect) command() {}
func (RejectInput) command()      {}

// Apply computes the state following ev. It is pure: s is not modified and
// side effects are returned as commands.
func Apply(s State, ev Event) (State, []Command) {
	next := s.clone()

	switch e := ev.(type) {
	case Started:
		next = State{
			Draft:   NewDraft(e.MinDate),
			Step:    StepDateTime,
			MinDate: e.MinDate,
			MaxDate: e.MaxDate,
		}
		next.SlotRequest = s.SlotRequest
		cmd := next.reloadSlots()
		return next.bump(s), []Command{ScrollTo{Target: ScrollTop}, cmd}

	case DateChanged:
		if s.locked() {
			return s, nil
		}
		if verr := validateDate(e.Date, s.MinDate, s.MaxDate); verr != nil {
			return next.reject(s, verr)
		}
		next.Draft.Date = e.Date
		next.clearError()
		cmd := next.reloadSlots()
		return next.bump(s), []Command{cmd}

	case GuestsChanged:
		if s.locked() {
			return s, nil
		}
		if !ValidGuests(e.Guests) {
			return next.reject(s, invalid(ReasonGuests, MsgInvalidGuests))
		}
		next.Draft.NumberOfGuests = e.Guests
		next.clearError()
		cmd := next.reloadSlots()
		return next.bump(s), []Command{cmd}

	case ContactChanged:
		if s.locked() {
			return s, nil
		}
		switch e.Field {
		case FieldName:
			next.Draft.CustomerName = e.Value
		case FieldEmail:
			next.Draft.CustomerEmail = e.Value
		case FieldPhone:
			next.Draft.CustomerPhone = e.Value
		case FieldSpecialRequests:
			next.Draft.SpecialRequests = e.Value
		default:
			return s, nil
		}
		next.clearError()
		return next.bump(s), nil

	case TimeSelected:
		if s.locked() {
			return s, nil
		}
		if !ValidTime(e.Time) {
			return next.reject(s, invalid(ReasonTime, MsgInvalidTime))
		}
		if !s.IsTimeAvailable(e.Time) {
			return next.reject(s, invalid(ReasonSlotFull, SlotFullMessage(e.Time)))
		}
		next.Draft.Time = e.Time
		next.clearError()
		return next.bump(s), nil

	case NextRequested:
		if s.locked() || s.Step >= StepContact {
			return s, nil
		}
		if !IsStepValid(s.Draft, s.Step) {
			return next.reject(s, invalid(ReasonStepIncomplete, MsgStepIncomplete))
		}
		next.Step++
		next.clearError()
		return next.bump(s), []Command{ScrollTo{Target: ScrollTop}}

	case PrevRequested:
		if s.locked() {
			return s, nil
		}
		if next.Step > StepDateTime {
			next.Step--
		}
		next.clearError()
		return next.bump(s), []Command{ScrollTo{Target: ScrollTop}}

	case SubmitRequested:
		if s.locked() || s.Step != StepContact {
			return s, nil
		}
		draft := s.Draft.Normalized()
		if verr := ValidateContact(draft); verr != nil {
			return next.reject(s, verr)
		}
		next.Loading = true
		next.clearError()
		return next.bump(s), []Command{SubmitBooking{Draft: draft}}

	case SlotsLoaded:
		if e.Token != s.SlotRequest || !s.LoadingSlots {
			return s, nil
		}
		next.Slots = append([]models.TimeSlot{}, e.Slots...)
		next.LoadingSlots = false
		return next.bump(s), nil

	case SubmitSucceeded:
		if !s.Loading {
			return s, nil
		}
		booking := e.Booking
		next.Loading = false
		next.Success = true
		next.Booking = &booking
		return next.bump(s), []Command{ScheduleRedirect{Route: RouteHome}}

	case SubmitFailed:
		if !s.Loading {
			return s, nil
		}
		next.Loading = false
		next.Failed = true
		next.Step = StepContact
		next.Error = SubmitErrorMessage(e.Err)
		return next.bump(s), []Command{ScrollTo{Target: ScrollError}}
	}

	return s, nil
}

// locked is true while a submission is in flight or after it succeeded.
func (s State) locked() bool {
	return s.Loading || s.Success
}

func (s *State) clearError() {
	s.Error = ""
	s.Failed = false
}

// reloadSlots drops the current slot set and issues a new request token.
func (s *State) reloadSlots() Command {
	s.SlotRequest++
	s.Slots = nil
	s.LoadingSlots = true
	return LoadSlots{Token: s.SlotRequest, Date: s.Draft.Date, Guests: s.Draft.NumberOfGuests}
}

func (s State) reject(prev State, verr *ValidationError) (State, []Command) {
	s.Error = verr.Message
	s.Failed = false
	return s.bump(prev), []Command{RejectInput{Err: verr}}
}

func (s State) bump(prev State) State {
	s.Version = prev.Version + 1
	return s
}
