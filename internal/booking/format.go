package booking

import (
	"fmt"
	"strings"
	"time"

	"romaantica/internal/models"
)

var weekdayNames = [...]string{
	"domenica", "lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato",
}

var monthNames = [...]string{
	"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
	"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
}

// FormatDate renders an ISO day as "giovedì 15 ottobre 2026".
func FormatDate(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse(models.DateLayout, iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%s %d %s %d", weekdayNames[t.Weekday()], t.Day(), monthNames[t.Month()-1], t.Year())
}

// DayOfWeek renders the weekday of an ISO day.
func DayOfWeek(iso string) string {
	t, err := time.Parse(models.DateLayout, iso)
	if err != nil {
		return ""
	}
	return weekdayNames[t.Weekday()]
}

// FormatGuests renders a party size.
func FormatGuests(n int) string {
	if n == 1 {
		return "1 persona"
	}
	return fmt.Sprintf("%d persone", n)
}

// FormatSummary renders the reservation line of a draft.
func FormatSummary(d models.DraftBooking) string {
	parts := make([]string, 0, 3)
	if d.Date != "" {
		parts = append(parts, FormatDate(d.Date))
	}
	if d.Time != "" {
		parts = append(parts, "ore "+d.Time)
	}
	if d.NumberOfGuests > 0 {
		parts = append(parts, FormatGuests(d.NumberOfGuests))
	}
	return strings.Join(parts, ", ")
}

// FormatConfirmation renders the message shown after a successful booking.
func FormatConfirmation(b models.BookingRecord) string {
	var sb strings.Builder
	if b.ID > 0 {
		fmt.Fprintf(&sb, "Prenotazione #%d confermata!\n", b.ID)
	} else {
		sb.WriteString("Prenotazione confermata!\n")
	}
	fmt.Fprintf(&sb, "%s\n", FormatSummary(models.DraftBooking{
		Date:           b.Date,
		Time:           b.Time,
		NumberOfGuests: b.NumberOfGuests,
	}))
	if b.CustomerEmail != "" {
		fmt.Fprintf(&sb, "Riceverai una conferma a %s.", b.CustomerEmail)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatSlot renders a slot label, e.g. "19:30 (8 posti)" or "20:00 (completo)".
func FormatSlot(s models.TimeSlot) string {
	switch {
	case !s.Available:
		return s.Time + " (completo)"
	case s.SpotsLeft != nil:
		return fmt.Sprintf("%s (%d posti)", s.Time, *s.SpotsLeft)
	default:
		return s.Time
	}
}
