package slots

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"romaantica/internal/booking"
	"romaantica/internal/models"
)

// Error is a rejected planner request carrying a customer-facing message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string       { return e.Message }
func (e *Error) StatusCode() int     { return e.Status }
func (e *Error) UserMessage() string { return e.Message }

const (
	msgPastDate     = "Non è possibile prenotare per una data passata"
	msgPastTime     = "L'orario selezionato è già passato"
	msgClosed       = "Il ristorante è chiuso nella data selezionata"
	msgUnknownTime  = "Orario non disponibile"
	msgInvalidDate  = "Data non valida"
	msgNotFound     = "Prenotazione non trovata"
	msgInvalidState = "Stato della prenotazione non valido"
)

func reject(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}

// Planner is an in-memory booking backend driven by a Schedule.
type Planner struct {
	mu       sync.RWMutex
	schedule Schedule
	now      func() time.Time
	logger   zerolog.Logger

	bookings map[int64]models.BookingRecord
	nextID   int64
}

// NewPlanner creates a planner; now defaults to time.Now.
func NewPlanner(schedule Schedule, now func() time.Time) *Planner {
	if now == nil {
		now = time.Now
	}
	return &Planner{
		schedule: schedule,
		now:      now,
		logger:   zerolog.Nop(),
		bookings: make(map[int64]models.BookingRecord),
	}
}

// SetLogger sets the planner logger.
func (p *Planner) SetLogger(logger *zerolog.Logger) {
	if logger != nil {
		p.logger = logger.With().Str("component", "planner").Logger()
	}
}

// SetSchedule replaces the schedule; existing bookings are kept.
func (p *Planner) SetSchedule(s Schedule) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.schedule = s
	p.logger.Info().Int("times", len(s.Times())).Int("seats", s.SeatsPerSlot).Msg("schedule updated")
}

// Schedule returns the current schedule.
func (p *Planner) Schedule() Schedule {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.schedule
}

// GetAvailableTimeSlots lists the day's times. A time is available when its
// remaining seats can host guests and it has not passed yet.
func (p *Planner) GetAvailableTimeSlots(ctx context.Context, date string, guests int) ([]models.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := p.now()
	day, verr := p.parseDay(date, now)
	if verr != nil {
		return nil, verr
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.schedule.IsClosed(day) {
		return []models.TimeSlot{}, nil
	}
	times := p.schedule.Times()
	out := make([]models.TimeSlot, 0, len(times))
	for _, t := range times {
		at, err := timeOnDate(day, t)
		if err != nil {
			continue
		}
		if !at.After(now) {
			out = append(out, models.TimeSlot{Time: t, Available: false})
			continue
		}
		left := p.remainingLocked(date, t)
		out = append(out, models.TimeSlot{
			Time:      t,
			Available: left >= guests,
			SpotsLeft: models.Spots(left),
		})
	}
	return out, nil
}

// CreateBooking stores draft when its slot still has room.
func (p *Planner) CreateBooking(ctx context.Context, draft models.DraftBooking) (*models.BookingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	draft = draft.Normalized()
	if verr := booking.ValidateContact(draft); verr != nil {
		return nil, reject(http.StatusBadRequest, verr.Message)
	}
	if !booking.ValidGuests(draft.NumberOfGuests) {
		return nil, reject(http.StatusBadRequest, booking.MsgInvalidGuests)
	}
	now := p.now()
	day, verr := p.parseDay(draft.Date, now)
	if verr != nil {
		return nil, verr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.schedule.IsClosed(day) {
		return nil, reject(http.StatusConflict, msgClosed)
	}
	if !p.schedule.Has(draft.Time) {
		return nil, reject(http.StatusBadRequest, msgUnknownTime)
	}
	at, err := timeOnDate(day, draft.Time)
	if err != nil {
		return nil, reject(http.StatusBadRequest, booking.MsgInvalidTime)
	}
	if !at.After(now) {
		return nil, reject(http.StatusConflict, msgPastTime)
	}
	if p.remainingLocked(draft.Date, draft.Time) < draft.NumberOfGuests {
		return nil, reject(http.StatusConflict, booking.SlotFullMessage(draft.Time))
	}

	p.nextID++
	rec := models.BookingRecord{
		ID:              p.nextID,
		CustomerName:    draft.CustomerName,
		CustomerEmail:   draft.CustomerEmail,
		CustomerPhone:   draft.CustomerPhone,
		Date:            draft.Date,
		Time:            draft.Time,
		NumberOfGuests:  draft.NumberOfGuests,
		Status:          models.StatusPending,
		SpecialRequests: draft.SpecialRequests,
		CreatedAt:       now.Format(time.RFC3339),
		UpdatedAt:       now.Format(time.RFC3339),
	}
	p.bookings[rec.ID] = rec
	p.logger.Info().Int64("booking_id", rec.ID).Str("date", rec.Date).Str("time", rec.Time).
		Int("guests", rec.NumberOfGuests).Msg("booking stored")
	return &rec, nil
}

// UpdateBookingStatus changes the status of booking id. Cancelled and
// no-show bookings release their seats.
func (p *Planner) UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !status.Valid() {
		return reject(http.StatusBadRequest, msgInvalidState)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.bookings[id]
	if !ok {
		return reject(http.StatusNotFound, msgNotFound)
	}
	rec.Status = status
	rec.UpdatedAt = p.now().Format(time.RFC3339)
	p.bookings[id] = rec
	return nil
}

// ListBookings returns the stored bookings ordered by id.
func (p *Planner) ListBookings(ctx context.Context) ([]models.BookingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.BookingRecord, 0, len(p.bookings))
	for _, rec := range p.bookings {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// remainingLocked must be called with p.mu held.
func (p *Planner) remainingLocked(date, t string) int {
	taken := 0
	for _, rec := range p.bookings {
		if rec.Date != date || rec.Time != t || !holdsSeats(rec.Status) {
			continue
		}
		taken += rec.NumberOfGuests
	}
	left := p.schedule.SeatsPerSlot - taken
	if left < 0 {
		return 0
	}
	return left
}

func holdsSeats(s models.BookingStatus) bool {
	return s != models.StatusCancelled && s != models.StatusNoShow
}

func (p *Planner) parseDay(date string, now time.Time) (time.Time, *Error) {
	day, err := time.ParseInLocation(models.DateLayout, date, now.Location())
	if err != nil {
		return time.Time{}, reject(http.StatusBadRequest, msgInvalidDate)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return time.Time{}, reject(http.StatusBadRequest, msgPastDate)
	}
	return day, nil
}
