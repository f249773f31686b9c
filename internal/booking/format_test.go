package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"romaantica/internal/models"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "giovedì 15 ottobre 2026", FormatDate("2026-10-15"))
	assert.Equal(t, "domenica 1 novembre 2026", FormatDate("2026-11-01"))
	assert.Equal(t, "garbage", FormatDate("garbage"))
	assert.Equal(t, "", FormatDate(""))
	assert.Equal(t, "sabato", DayOfWeek("2026-10-17"))
}

func TestFormatSummary(t *testing.T) {
	d := models.DraftBooking{Date: "2026-10-15", Time: "19:30", NumberOfGuests: 4}
	assert.Equal(t, "giovedì 15 ottobre 2026, ore 19:30, 4 persone", FormatSummary(d))

	d = models.DraftBooking{Date: "2026-10-15", NumberOfGuests: 1}
	assert.Equal(t, "giovedì 15 ottobre 2026, 1 persona", FormatSummary(d))
}

func TestFormatConfirmation(t *testing.T) {
	b := models.BookingRecord{
		ID:             42,
		Date:           "2026-10-15",
		Time:           "20:00",
		NumberOfGuests: 2,
		CustomerEmail:  "mario@example.it",
	}
	msg := FormatConfirmation(b)
	assert.Contains(t, msg, "Prenotazione #42 confermata!")
	assert.Contains(t, msg, "ore 20:00, 2 persone")
	assert.Contains(t, msg, "mario@example.it")
}

func TestFormatSlot(t *testing.T) {
	assert.Equal(t, "19:30 (8 posti)", FormatSlot(models.TimeSlot{Time: "19:30", Available: true, SpotsLeft: models.Spots(8)}))
	assert.Equal(t, "20:00 (completo)", FormatSlot(models.TimeSlot{Time: "20:00", SpotsLeft: models.Spots(0)}))
	assert.Equal(t, "12:00", FormatSlot(models.TimeSlot{Time: "12:00", Available: true}))
}
