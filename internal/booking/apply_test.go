package booking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"romaantica/internal/models"
)

func started(t *testing.T) State {
	t.Helper()
	s, cmds := Apply(State{}, Started{MinDate: "2026-10-15", MaxDate: "2027-01-15"})
	require.Len(t, cmds, 2)
	assert.Equal(t, ScrollTo{Target: ScrollTop}, cmds[0])
	assert.Equal(t, LoadSlots{Token: 1, Date: "2026-10-15", Guests: DefaultGuests}, cmds[1])
	return s
}

func loaded(s State, slots ...models.TimeSlot) State {
	s, _ = Apply(s, SlotsLoaded{Token: s.SlotRequest, Slots: slots})
	return s
}

func atContact(t *testing.T) State {
	t.Helper()
	s := loaded(started(t))
	s, _ = Apply(s, TimeSelected{Time: "19:30"})
	s, _ = Apply(s, NextRequested{})
	s, _ = Apply(s, NextRequested{})
	require.Equal(t, StepContact, s.Step)
	s, _ = Apply(s, ContactChanged{Field: FieldName, Value: " Mario Rossi "})
	s, _ = Apply(s, ContactChanged{Field: FieldEmail, Value: "mario@example.it"})
	s, _ = Apply(s, ContactChanged{Field: FieldPhone, Value: "333 123 4567"})
	return s
}

func TestApplyStarted(t *testing.T) {
	s := started(t)
	assert.Equal(t, StepDateTime, s.Step)
	assert.Equal(t, PhaseDateTime, s.Phase())
	assert.Equal(t, "2026-10-15", s.Draft.Date)
	assert.Equal(t, DefaultGuests, s.Draft.NumberOfGuests)
	assert.True(t, s.LoadingSlots)
	assert.Equal(t, uint64(1), s.SlotRequest)
	assert.Equal(t, uint64(1), s.Version)

	// Restarting keeps the token monotonic.
	again, cmds := Apply(s, Started{MinDate: "2026-10-16", MaxDate: "2027-01-16"})
	assert.Equal(t, uint64(2), again.SlotRequest)
	assert.Equal(t, LoadSlots{Token: 2, Date: "2026-10-16", Guests: DefaultGuests}, cmds[1])
}

func TestApplyDateAndGuests(t *testing.T) {
	s := loaded(started(t), models.TimeSlot{Time: "19:30", Available: true})
	require.False(t, s.LoadingSlots)

	t.Run("DateReloadsSlots", func(t *testing.T) {
		next, cmds := Apply(s, DateChanged{Date: "2026-10-20"})
		assert.Equal(t, "2026-10-20", next.Draft.Date)
		assert.Nil(t, next.Slots)
		assert.True(t, next.LoadingSlots)
		assert.Equal(t, []Command{LoadSlots{Token: 2, Date: "2026-10-20", Guests: 2}}, cmds)
		assert.Len(t, s.Slots, 1, "previous snapshot must not change")
	})

	t.Run("DateOutOfRange", func(t *testing.T) {
		next, cmds := Apply(s, DateChanged{Date: "2027-02-01"})
		assert.Equal(t, "2026-10-15", next.Draft.Date)
		assert.Contains(t, next.Error, "Seleziona una data compresa")
		require.Len(t, cmds, 1)
		assert.IsType(t, RejectInput{}, cmds[0])
		assert.Equal(t, s.SlotRequest, next.SlotRequest)
	})

	t.Run("GuestsReloadsSlots", func(t *testing.T) {
		next, cmds := Apply(s, GuestsChanged{Guests: 6})
		assert.Equal(t, 6, next.Draft.NumberOfGuests)
		assert.Equal(t, []Command{LoadSlots{Token: 2, Date: "2026-10-15", Guests: 6}}, cmds)
	})

	t.Run("GuestsOutOfRange", func(t *testing.T) {
		for _, n := range []int{0, 11, -1} {
			next, _ := Apply(s, GuestsChanged{Guests: n})
			assert.Equal(t, DefaultGuests, next.Draft.NumberOfGuests)
			assert.Equal(t, MsgInvalidGuests, next.Error)
		}
	})

	t.Run("TimeKeptAcrossReload", func(t *testing.T) {
		next, _ := Apply(s, TimeSelected{Time: "19:30"})
		next, _ = Apply(next, DateChanged{Date: "2026-10-21"})
		assert.Equal(t, "19:30", next.Draft.Time)
	})
}

func TestApplyTimeSelected(t *testing.T) {
	s := loaded(started(t),
		models.TimeSlot{Time: "19:00", Available: false, SpotsLeft: models.Spots(0)},
		models.TimeSlot{Time: "19:30", Available: true, SpotsLeft: models.Spots(4)},
	)

	next, cmds := Apply(s, TimeSelected{Time: "19:00"})
	assert.Equal(t, "", next.Draft.Time)
	assert.Equal(t, SlotFullMessage("19:00"), next.Error)
	require.Len(t, cmds, 1)
	assert.Equal(t, ReasonSlotFull, cmds[0].(RejectInput).Err.Reason)

	next, cmds = Apply(next, TimeSelected{Time: "19:30"})
	assert.Equal(t, "19:30", next.Draft.Time)
	assert.Empty(t, next.Error)
	assert.Empty(t, cmds)

	// Times outside the listed set are accepted; the backend has the final word.
	next, _ = Apply(next, TimeSelected{Time: "23:00"})
	assert.Equal(t, "23:00", next.Draft.Time)

	next, _ = Apply(next, TimeSelected{Time: "7pm"})
	assert.Equal(t, "23:00", next.Draft.Time)
	assert.Equal(t, MsgInvalidTime, next.Error)
}

func TestApplyNavigation(t *testing.T) {
	s := loaded(started(t))

	next, cmds := Apply(s, NextRequested{})
	assert.Equal(t, StepDateTime, next.Step)
	assert.Equal(t, MsgStepIncomplete, next.Error)
	assert.IsType(t, RejectInput{}, cmds[0])

	next, _ = Apply(next, TimeSelected{Time: "20:00"})
	assert.Empty(t, next.Error)

	next, cmds = Apply(next, NextRequested{})
	assert.Equal(t, StepPartySize, next.Step)
	assert.Equal(t, []Command{ScrollTo{Target: ScrollTop}}, cmds)

	next, _ = Apply(next, NextRequested{})
	assert.Equal(t, StepContact, next.Step)

	same, cmds := Apply(next, NextRequested{})
	assert.Equal(t, next.Version, same.Version)
	assert.Empty(t, cmds)

	next, _ = Apply(next, PrevRequested{})
	next, _ = Apply(next, PrevRequested{})
	assert.Equal(t, StepDateTime, next.Step)
	next, _ = Apply(next, PrevRequested{})
	assert.Equal(t, StepDateTime, next.Step)
	assert.Equal(t, "20:00", next.Draft.Time)
}

func TestApplySubmit(t *testing.T) {
	t.Run("OnlyAtContactStep", func(t *testing.T) {
		s := loaded(started(t))
		next, cmds := Apply(s, SubmitRequested{})
		assert.Equal(t, s.Version, next.Version)
		assert.Empty(t, cmds)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		s := atContact(t)
		s, _ = Apply(s, ContactChanged{Field: FieldEmail, Value: "a@b"})
		next, cmds := Apply(s, SubmitRequested{})
		assert.False(t, next.Loading)
		assert.Equal(t, MsgInvalidEmail, next.Error)
		assert.IsType(t, RejectInput{}, cmds[0])
	})

	t.Run("SendsNormalizedDraft", func(t *testing.T) {
		s := atContact(t)
		next, cmds := Apply(s, SubmitRequested{})
		assert.True(t, next.Loading)
		assert.Equal(t, PhaseSubmitting, next.Phase())
		require.Len(t, cmds, 1)
		sub := cmds[0].(SubmitBooking)
		assert.Equal(t, "Mario Rossi", sub.Draft.CustomerName)
		assert.Equal(t, "19:30", sub.Draft.Time)

		again, cmds := Apply(next, SubmitRequested{})
		assert.Equal(t, next.Version, again.Version)
		assert.Empty(t, cmds)

		edited, _ := Apply(next, ContactChanged{Field: FieldName, Value: "Luigi"})
		assert.Equal(t, " Mario Rossi ", edited.Draft.CustomerName)
	})

	t.Run("Success", func(t *testing.T) {
		s, _ := Apply(atContact(t), SubmitRequested{})
		next, cmds := Apply(s, SubmitSucceeded{Booking: models.BookingRecord{ID: 7}})
		assert.True(t, next.Success)
		assert.False(t, next.Loading)
		assert.Equal(t, PhaseSuccess, next.Phase())
		require.NotNil(t, next.Booking)
		assert.Equal(t, int64(7), next.Booking.ID)
		assert.Equal(t, []Command{ScheduleRedirect{Route: RouteHome}}, cmds)

		again, _ := Apply(next, SubmitRequested{})
		assert.Equal(t, next.Version, again.Version)
	})

	t.Run("Failure", func(t *testing.T) {
		s, _ := Apply(atContact(t), SubmitRequested{})
		next, cmds := Apply(s, SubmitFailed{Err: errors.New("boom")})
		assert.False(t, next.Loading)
		assert.True(t, next.Failed)
		assert.Equal(t, StepContact, next.Step)
		assert.Equal(t, MsgGenericFailure, next.Error)
		assert.Equal(t, PhaseFailed, next.Phase())
		assert.Equal(t, []Command{ScrollTo{Target: ScrollError}}, cmds)

		// Retry from the failed state.
		retry, cmds := Apply(next, SubmitRequested{})
		assert.True(t, retry.Loading)
		assert.False(t, retry.Failed)
		assert.IsType(t, SubmitBooking{}, cmds[0])
	})

	t.Run("LateResultIgnored", func(t *testing.T) {
		s := atContact(t)
		next, cmds := Apply(s, SubmitFailed{Err: errors.New("late")})
		assert.Equal(t, s.Version, next.Version)
		assert.Empty(t, cmds)
	})
}

func TestApplySlotsLoaded(t *testing.T) {
	s := started(t)
	s, _ = Apply(s, DateChanged{Date: "2026-10-20"})
	require.Equal(t, uint64(2), s.SlotRequest)

	stale, _ := Apply(s, SlotsLoaded{Token: 1, Slots: []models.TimeSlot{{Time: "12:00"}}})
	assert.Equal(t, s.Version, stale.Version)
	assert.True(t, stale.LoadingSlots)

	fresh, _ := Apply(s, SlotsLoaded{Token: 2, Slots: []models.TimeSlot{{Time: "19:00", Available: true}}})
	assert.False(t, fresh.LoadingSlots)
	assert.Equal(t, []string{"19:00"}, fresh.AvailableTimes())

	dup, _ := Apply(fresh, SlotsLoaded{Token: 2})
	assert.Equal(t, fresh.Version, dup.Version)
}

func TestStateHasInput(t *testing.T) {
	s := started(t)
	assert.False(t, s.HasInput())
	s, _ = Apply(s, ContactChanged{Field: FieldSpecialRequests, Value: "tavolo all'aperto"})
	assert.True(t, s.HasInput())
}
