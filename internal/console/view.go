package console

import (
	"fmt"
	"strings"

	"romaantica/internal/booking"
	"romaantica/internal/calendar"
)

// changes lists what a customer needs to read after moving from prev to st.
func changes(prev, st booking.State) []string {
	var out []string
	if st.Step != prev.Step {
		out = append(out, fmt.Sprintf("== Passo %d di 3: %s ==", st.Step, stepTitles[st.Step]))
	}
	if st.Draft.Date != prev.Draft.Date {
		out = append(out, "Data: "+booking.FormatDate(st.Draft.Date))
	}
	if st.Draft.NumberOfGuests != prev.Draft.NumberOfGuests {
		out = append(out, "Ospiti: "+booking.FormatGuests(st.Draft.NumberOfGuests))
	}
	if st.Draft.Time != prev.Draft.Time && st.Draft.Time != "" {
		out = append(out, "Orario: "+st.Draft.Time)
	}
	if prev.LoadingSlots && !st.LoadingSlots {
		out = append(out, slotLine(st))
	}
	if st.Error != "" && st.Error != prev.Error {
		out = append(out, "⚠️  "+st.Error)
	}
	if st.Loading && !prev.Loading {
		out = append(out, "Invio della prenotazione in corso...")
	}
	if st.Success && !prev.Success && st.Booking != nil {
		out = append(out, "✅ "+booking.FormatConfirmation(*st.Booking))
	}
	return out
}

func slotLine(st booking.State) string {
	if len(st.Slots) == 0 {
		return "Nessun orario disponibile per questa data."
	}
	parts := make([]string, 0, len(st.Slots))
	for _, slot := range st.Slots {
		parts = append(parts, booking.FormatSlot(slot))
	}
	return "Orari: " + strings.Join(parts, ", ")
}

// describe renders the whole session for the "stato" command.
func describe(st booking.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Passo %d di 3: %s\n", st.Step, stepTitles[st.Step])
	fmt.Fprintf(&sb, "Data: %s\n", booking.FormatDate(st.Draft.Date))
	fmt.Fprintf(&sb, "Orario: %s\n", orDash(st.Draft.Time))
	fmt.Fprintf(&sb, "Ospiti: %s\n", booking.FormatGuests(st.Draft.NumberOfGuests))
	fmt.Fprintf(&sb, "Nome: %s\n", orDash(st.Draft.CustomerName))
	fmt.Fprintf(&sb, "Email: %s\n", orDash(st.Draft.CustomerEmail))
	fmt.Fprintf(&sb, "Telefono: %s\n", orDash(st.Draft.CustomerPhone))
	fmt.Fprintf(&sb, "Note: %s\n", orDash(st.Draft.SpecialRequests))
	if st.LoadingSlots {
		sb.WriteString("Caricamento orari...")
	} else {
		sb.WriteString(slotLine(st))
	}
	if st.Error != "" {
		sb.WriteString("\n⚠️  " + st.Error)
	}
	return sb.String()
}

// formatGrid prints the shown month; disabled days are dotted and the
// selected day is bracketed.
func formatGrid(p *calendar.Picker) string {
	var sb strings.Builder
	sb.WriteString(p.Title() + "\n")
	sb.WriteString(" Lu  Ma  Me  Gi  Ve  Sa  Do\n")
	for i, day := range p.Days() {
		switch {
		case !day.IsCurrentMonth:
			sb.WriteString("    ")
		case day.IsSelected:
			fmt.Fprintf(&sb, "[%2d]", day.Day)
		case day.IsDisabled:
			sb.WriteString("  · ")
		default:
			fmt.Fprintf(&sb, " %2d ", day.Day)
		}
		if i%7 == 6 {
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
