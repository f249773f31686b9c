// Package booking implements the three-step table booking flow.
package booking

import (
	"romaantica/internal/models"
)

// Step is the wizard position.
type Step int

const (
	StepDateTime  Step = 1
	StepPartySize Step = 2
	StepContact   Step = 3
)

// Phase is the state of the booking flow as seen by a host.
type Phase string

const (
	PhaseDateTime   Phase = "step1_date_time"
	PhasePartySize  Phase = "step2_party_size"
	PhaseContact    Phase = "step3_contact"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseFailed     Phase = "failed"
)

const (
	MinGuests     = 1
	MaxGuests     = 10
	DefaultGuests = 2
)

// GuestOptions are the party sizes offered to the customer.
var GuestOptions = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

// DefaultTimes is the daily schedule shown when availability cannot be loaded.
var DefaultTimes = []string{
	"12:00", "12:30", "13:00", "13:30", "14:00",
	"19:00", "19:30", "20:00", "20:30", "21:00", "21:30", "22:00",
}

// Route is a destination the host can navigate to.
type Route string

const (
	RouteHome Route = "/"
	RouteMenu Route = "/menu"
)

// Scroll targets passed to Host.ScrollTo.
const (
	ScrollTop   = "top"
	ScrollError = "error"
)

// Field names a draft field editable through ContactChanged.
type Field string

const (
	FieldName            Field = "customerName"
	FieldEmail           Field = "customerEmail"
	FieldPhone           Field = "customerPhone"
	FieldSpecialRequests Field = "specialRequests"
)

// State is the whole booking session. Values are snapshots: Apply never
// mutates the Slots slice of a previous state.
type State struct {
	Draft models.DraftBooking
	Step  Step

	Slots        []models.TimeSlot
	LoadingSlots bool
	SlotRequest  uint64 // token of the latest issued slot request

	Loading bool
	Success bool
	Failed  bool
	Error   string

	MinDate string
	MaxDate string

	Booking *models.BookingRecord
	Version uint64
}

// Phase derives the flow phase from the state flags.
func (s State) Phase() Phase {
	switch {
	case s.Success:
		return PhaseSuccess
	case s.Loading:
		return PhaseSubmitting
	case s.Failed:
		return PhaseFailed
	}
	switch s.Step {
	case StepPartySize:
		return PhasePartySize
	case StepContact:
		return PhaseContact
	default:
		return PhaseDateTime
	}
}

// SlotInfo returns the listed slot for t.
func (s State) SlotInfo(t string) (models.TimeSlot, bool) {
	for _, slot := range s.Slots {
		if slot.Time == t {
			return slot, true
		}
	}
	return models.TimeSlot{}, false
}

// IsTimeAvailable reports false only for times listed as unavailable.
func (s State) IsTimeAvailable(t string) bool {
	slot, ok := s.SlotInfo(t)
	return !ok || slot.Available
}

// AvailableTimes lists the times of the current slot set in schedule order.
func (s State) AvailableTimes() []string {
	times := make([]string, 0, len(s.Slots))
	for _, slot := range s.Slots {
		times = append(times, slot.Time)
	}
	return times
}

// HasInput reports whether the customer typed anything worth confirming before leaving.
func (s State) HasInput() bool {
	d := s.Draft
	return d.Time != "" || d.CustomerName != "" || d.CustomerEmail != "" ||
		d.CustomerPhone != "" || d.SpecialRequests != ""
}

func (s State) clone() State {
	if s.Slots != nil {
		s.Slots = append([]models.TimeSlot(nil), s.Slots...)
	}
	if s.Booking != nil {
		b := *s.Booking
		s.Booking = &b
	}
	return s
}

// NewDraft returns the draft a session starts with.
func NewDraft(today string) models.DraftBooking {
	return models.DraftBooking{
		Date:           today,
		NumberOfGuests: DefaultGuests,
	}
}
