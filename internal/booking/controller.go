package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"romaantica/internal/calendar"
	"romaantica/internal/metrics"
	"romaantica/internal/models"
)

// Backend stores bookings and reports slot availability.
type Backend interface {
	CreateBooking(ctx context.Context, draft models.DraftBooking) (*models.BookingRecord, error)
	GetAvailableTimeSlots(ctx context.Context, date string, guests int) ([]models.TimeSlot, error)
}

// Host embeds the controller and performs environment effects on its behalf.
type Host interface {
	Navigate(route Route)
	ScrollTo(target string)
	Confirm(message string) bool
}

// Timer is a pending call scheduled by a Clock.
type Timer interface {
	Stop() bool
}

// Clock provides the current time and delayed calls.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Publisher receives booking domain events.
type Publisher interface {
	PublishJSON(eventType string, payload any) error
}

// Domain event types published by the controller.
const (
	EventBookingCreated = "booking.created"
	EventBookingFailed  = "booking.failed"
)

const (
	DefaultRedirectDelay = 3 * time.Second
	DefaultSlotTimeout   = 10 * time.Second
	DefaultSubmitTimeout = 15 * time.Second

	msgConfirmCancel = "Vuoi annullare la prenotazione?"
)

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	RedirectDelay    time.Duration
	MaxAdvanceMonths int
	FallbackTimes    []string
	SlotTimeout      time.Duration
	SubmitTimeout    time.Duration
	Clock            Clock
	Publisher        Publisher
	Logger           *zerolog.Logger
}

// Controller owns one booking session. Events are applied one at a time;
// backend calls run in their own goroutines and re-enter as events.
type Controller struct {
	backend Backend
	host    Host
	opts    Options
	logger  zerolog.Logger

	mu         sync.Mutex
	state      State
	observers  map[int]func(State)
	nextObs    int
	slotCancel context.CancelFunc
	redirect   Timer
	closed     bool
	ctx        context.Context
	cancel     context.CancelFunc
	inflight   sync.WaitGroup
	sessionID  string

	// attemptKey identifies submissions of attemptDraft; resubmitting the
	// same draft after a failure reuses it.
	attemptKey   string
	attemptDraft models.DraftBooking
}

// NewController creates a controller; call Start to begin the session.
func NewController(backend Backend, host Host, opts Options) *Controller {
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = DefaultRedirectDelay
	}
	if opts.MaxAdvanceMonths <= 0 {
		opts.MaxAdvanceMonths = calendar.DefaultMaxAdvanceMonths
	}
	if len(opts.FallbackTimes) == 0 {
		opts.FallbackTimes = DefaultTimes
	}
	if opts.SlotTimeout <= 0 {
		opts.SlotTimeout = DefaultSlotTimeout
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = DefaultSubmitTimeout
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	sessionID := uuid.NewString()

	return &Controller{
		backend:   backend,
		host:      host,
		opts:      opts,
		logger:    logger.With().Str("session", sessionID).Logger(),
		observers: make(map[int]func(State)),
		sessionID: sessionID,
	}
}

// SessionID identifies the session in logs and events.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Start resets the draft to today's defaults and loads today's slots.
// ctx bounds every backend call of the session.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	if c.redirect != nil {
		c.redirect.Stop()
		c.redirect = nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.closed = false
	c.mu.Unlock()

	bounds := calendar.NewBounds(c.opts.Clock.Now(), c.opts.MaxAdvanceMonths)
	c.Dispatch(Started{
		MinDate: bounds.Min.Format(models.DateLayout),
		MaxDate: bounds.Max.Format(models.DateLayout),
	})
}

// State returns a snapshot of the session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn for every state change and returns its cancel func.
// fn runs on the goroutine that triggered the change.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// SetDate changes the booking day and reloads its slots.
func (c *Controller) SetDate(date string) { c.Dispatch(DateChanged{Date: date}) }

// SetGuests changes the party size and reloads the slots.
func (c *Controller) SetGuests(n int) { c.Dispatch(GuestsChanged{Guests: n}) }

// SetContact stores value in contact field f.
func (c *Controller) SetContact(f Field, value string) {
	c.Dispatch(ContactChanged{Field: f, Value: value})
}

// SelectTime picks a slot; times listed as full are rejected.
func (c *Controller) SelectTime(t string) { c.Dispatch(TimeSelected{Time: t}) }

// Next moves forward when the current step is complete.
func (c *Controller) Next() { c.Dispatch(NextRequested{}) }

// Prev moves back one step.
func (c *Controller) Prev() { c.Dispatch(PrevRequested{}) }

// Submit sends the draft. It is a no-op while a submission is in flight.
func (c *Controller) Submit() { c.Dispatch(SubmitRequested{}) }

// IsStepValid reports whether the current draft satisfies step.
func (c *Controller) IsStepValid(step Step) bool {
	return IsStepValid(c.State().Draft, step)
}

// MinDate is the first selectable day.
func (c *Controller) MinDate() string { return c.State().MinDate }

// MaxDate is the last selectable day.
func (c *Controller) MaxDate() string { return c.State().MaxDate }

// Cancel leaves the flow after the host confirms, when there is input to lose.
func (c *Controller) Cancel() bool {
	st := c.State()
	if st.HasInput() && !st.Success && !c.host.Confirm(msgConfirmCancel) {
		return false
	}
	c.logger.Info().Msg("booking cancelled by customer")
	c.Close()
	c.host.Navigate(RouteHome)
	return true
}

// GoToMenu leaves the flow for the menu page.
func (c *Controller) GoToMenu() {
	c.Close()
	c.host.Navigate(RouteMenu)
}

// Close cancels in-flight calls and the pending redirect. Late events are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	if c.redirect != nil {
		c.redirect.Stop()
	}
}

// Wait blocks until every backend call issued so far has re-entered.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Dispatch applies ev, notifies observers and runs the resulting commands.
func (c *Controller) Dispatch(ev Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	prev := c.state
	if loaded, ok := ev.(SlotsLoaded); ok && loaded.Token != prev.SlotRequest {
		c.mu.Unlock()
		metrics.IncStaleSlotResponse()
		c.logger.Debug().Uint64("token", loaded.Token).Uint64("latest", prev.SlotRequest).Msg("discarded stale slot response")
		return
	}
	next, cmds := Apply(prev, ev)
	if next.Version == prev.Version {
		c.mu.Unlock()
		return
	}
	c.state = next
	snapshot := next.clone()
	observers := make([]func(State), 0, len(c.observers))
	for id := 0; id < c.nextObs; id++ {
		if fn, ok := c.observers[id]; ok {
			observers = append(observers, fn)
		}
	}
	c.mu.Unlock()

	if prev.Step != next.Step && prev.Step != 0 {
		metrics.IncStepTransition(int(prev.Step), int(next.Step))
	}

	for _, fn := range observers {
		fn(snapshot)
	}
	for _, cmd := range cmds {
		c.run(cmd)
	}
}

func (c *Controller) run(cmd Command) {
	switch cmd := cmd.(type) {
	case LoadSlots:
		c.loadSlots(cmd)
	case SubmitBooking:
		c.submit(cmd.Draft)
	case ScrollTo:
		c.host.ScrollTo(cmd.Target)
	case ScheduleRedirect:
		c.scheduleRedirect(cmd.Route)
	case RejectInput:
		metrics.IncValidationError(string(cmd.Err.Reason))
		c.logger.Debug().Str("reason", string(cmd.Err.Reason)).Msg(cmd.Err.Message)
	}
}

// loadSlots cancels the superseded request and fetches the new slot set.
func (c *Controller) loadSlots(cmd LoadSlots) {
	c.mu.Lock()
	if c.closed || cmd.Token != c.state.SlotRequest {
		c.mu.Unlock()
		return
	}
	if c.slotCancel != nil {
		c.slotCancel()
	}
	ctx, cancel := context.WithTimeout(c.baseContext(), c.opts.SlotTimeout)
	c.slotCancel = cancel
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		defer cancel()

		slots, err := c.backend.GetAvailableTimeSlots(ctx, cmd.Date, cmd.Guests)
		switch {
		case err == nil:
			metrics.IncSlotLoad("ok")
		case errors.Is(ctx.Err(), context.Canceled):
			metrics.IncSlotLoad("cancelled")
			c.logger.Debug().Err(err).Uint64("token", cmd.Token).Msg("slot request abandoned")
			return
		default:
			metrics.IncSlotLoad("fallback")
			c.logger.Warn().Err(err).Str("date", cmd.Date).Int("guests", cmd.Guests).Msg("slot load failed, using static schedule")
			slots = c.fallbackSlots()
		}
		c.Dispatch(SlotsLoaded{Token: cmd.Token, Slots: slots})
	}()
}

func (c *Controller) fallbackSlots() []models.TimeSlot {
	slots := make([]models.TimeSlot, 0, len(c.opts.FallbackTimes))
	for _, t := range c.opts.FallbackTimes {
		slots = append(slots, models.TimeSlot{Time: t, Available: true})
	}
	return slots
}

func (c *Controller) submit(draft models.DraftBooking) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.attemptKey == "" || c.attemptDraft != draft {
		c.attemptKey = uuid.NewString()
		c.attemptDraft = draft
	}
	ctx, cancel := context.WithTimeout(c.baseContext(), c.opts.SubmitTimeout)
	ctx = models.WithIdempotencyKey(ctx, c.attemptKey)
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		defer cancel()

		record, err := c.backend.CreateBooking(ctx, draft)
		if err != nil {
			metrics.IncSubmission("failed")
			c.logger.Error().Err(err).Str("date", draft.Date).Str("time", draft.Time).Msg("booking submission failed")
			c.publish(EventBookingFailed, map[string]any{
				"session": c.sessionID,
				"date":    draft.Date,
				"time":    draft.Time,
				"error":   err.Error(),
			})
			c.Dispatch(SubmitFailed{Err: err})
			return
		}
		if record == nil {
			record = &models.BookingRecord{}
		}
		metrics.IncSubmission("created")
		c.logger.Info().Int64("booking_id", record.ID).Str("date", record.Date).Str("time", record.Time).Msg("booking created")
		c.publish(EventBookingCreated, record)
		c.Dispatch(SubmitSucceeded{Booking: *record})
	}()
}

func (c *Controller) scheduleRedirect(route Route) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.redirect != nil {
		return
	}
	c.redirect = c.opts.Clock.AfterFunc(c.opts.RedirectDelay, func() {
		c.host.Navigate(route)
	})
}

func (c *Controller) publish(eventType string, payload any) {
	if c.opts.Publisher == nil {
		return
	}
	if err := c.opts.Publisher.PublishJSON(eventType, payload); err != nil {
		c.logger.Warn().Err(err).Str("event", eventType).Msg("publish failed")
	}
}

// baseContext must be called with c.mu held.
func (c *Controller) baseContext() context.Context {
	if c.ctx == nil {
		c.ctx, c.cancel = context.WithCancel(context.Background())
	}
	return c.ctx
}
