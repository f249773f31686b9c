package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"romaantica/internal/booking"
	"romaantica/internal/calendar"
)

var weekdayHeader = []string{"Lu", "Ma", "Me", "Gi", "Ve", "Sa", "Do"}

var fieldLabels = map[booking.Field]string{
	booking.FieldName:            "Nome",
	booking.FieldEmail:           "Email",
	booking.FieldPhone:           "Telefono",
	booking.FieldSpecialRequests: "Richieste speciali",
}

var fieldPrompts = map[booking.Field]string{
	booking.FieldName:            "Scrivi il tuo nome e cognome:",
	booking.FieldEmail:           "Scrivi il tuo indirizzo email:",
	booking.FieldPhone:           "Scrivi il tuo numero di telefono:",
	booking.FieldSpecialRequests: "Scrivi eventuali richieste speciali (allergie, seggiolone...):",
}

var stepTitles = map[booking.Step]string{
	booking.StepDateTime:  "Data e orario",
	booking.StepPartySize: "Numero di ospiti",
	booking.StepContact:   "I tuoi dati",
}

// view is what a booking message shows.
type view struct {
	state      booking.State
	picker     *calendar.Picker
	awaiting   booking.Field
	confirming bool
}

// render builds the booking message text and its inline keyboard.
func render(v view) (string, *tgbotapi.InlineKeyboardMarkup) {
	st := v.state
	var sb strings.Builder
	sb.WriteString("🍝 Roma Antica · Prenota un tavolo\n\n")

	switch st.Phase() {
	case booking.PhaseSubmitting:
		sb.WriteString(booking.FormatSummary(st.Draft))
		sb.WriteString("\n\n⏳ Invio della prenotazione in corso...")
		return sb.String(), nil
	case booking.PhaseSuccess:
		if st.Booking != nil {
			sb.WriteString("✅ " + booking.FormatConfirmation(*st.Booking))
		} else {
			sb.WriteString("✅ Prenotazione confermata!")
		}
		sb.WriteString("\n\nTi riportiamo alla home tra pochi secondi.")
		return sb.String(), nil
	}

	if v.confirming {
		sb.WriteString("Vuoi annullare la prenotazione?")
		return sb.String(), markup([][]tgbotapi.InlineKeyboardButton{{
			button("Sì, annulla", "cancel:yes"),
			button("No, continua", "cancel:no"),
		}})
	}

	fmt.Fprintf(&sb, "Passo %d di 3: %s\n\n", st.Step, stepTitles[st.Step])
	if st.Error != "" {
		sb.WriteString("⚠️ " + st.Error + "\n\n")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	switch st.Step {
	case booking.StepPartySize:
		rows = renderGuests(&sb, st)
	case booking.StepContact:
		rows = renderContact(&sb, st, v.awaiting)
	default:
		rows = renderDateTime(&sb, st, v.picker)
	}
	rows = append(rows, navRow(st))
	return sb.String(), markup(rows)
}

func renderDateTime(sb *strings.Builder, st booking.State, picker *calendar.Picker) [][]tgbotapi.InlineKeyboardButton {
	fmt.Fprintf(sb, "📅 Data: %s\n", booking.FormatDate(st.Draft.Date))
	fmt.Fprintf(sb, "🕐 Orario: %s\n", valueOr(st.Draft.Time, "non selezionato"))

	if picker != nil && picker.IsOpen() {
		sb.WriteString("\nScegli un giorno:")
		return calendarRows(picker)
	}

	rows := [][]tgbotapi.InlineKeyboardButton{{button("📅 Cambia data", "cal:open")}}
	if st.LoadingSlots {
		sb.WriteString("\nCaricamento orari...")
		return rows
	}
	if len(st.Slots) == 0 {
		sb.WriteString("\nNessun orario disponibile per questa data.")
		return rows
	}
	sb.WriteString("\nScegli un orario:")
	return append(rows, slotRows(st)...)
}

func calendarRows(p *calendar.Picker) [][]tgbotapi.InlineKeyboardButton {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{button("◀️", "cal:prev"), button(p.Title(), "noop"), button("▶️", "cal:next")},
	}
	header := make([]tgbotapi.InlineKeyboardButton, 0, 7)
	for _, d := range weekdayHeader {
		header = append(header, button(d, "noop"))
	}
	rows = append(rows, header)

	days := p.Days()
	for week := 0; week*7 < len(days); week++ {
		row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
		for _, day := range days[week*7 : week*7+7] {
			row = append(row, dayButton(day))
		}
		rows = append(rows, row)
	}
	rows = append(rows,
		[]tgbotapi.InlineKeyboardButton{
			button("Oggi", "cal:today"),
			button("Domani", "cal:tomorrow"),
			button("Weekend", "cal:weekend"),
		},
		[]tgbotapi.InlineKeyboardButton{button("Chiudi calendario", "cal:open")},
	)
	return rows
}

func dayButton(day calendar.Day) tgbotapi.InlineKeyboardButton {
	switch {
	case !day.IsCurrentMonth:
		return button(" ", "noop")
	case day.IsDisabled:
		return button("·", "noop")
	case day.IsSelected:
		return button("["+strconv.Itoa(day.Day)+"]", "date:"+day.ISO())
	case day.IsToday:
		return button("•"+strconv.Itoa(day.Day), "date:"+day.ISO())
	default:
		return button(strconv.Itoa(day.Day), "date:"+day.ISO())
	}
}

func slotRows(st booking.State) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	var current []tgbotapi.InlineKeyboardButton
	for _, slot := range st.Slots {
		label := booking.FormatSlot(slot)
		switch {
		case !slot.Available:
			label = "⛔ " + slot.Time
		case slot.Time == st.Draft.Time:
			label = "✅ " + label
		}
		current = append(current, button(label, "time:"+slot.Time))
		if len(current) == 3 {
			rows = append(rows, current)
			current = nil
		}
	}
	if len(current) > 0 {
		rows = append(rows, current)
	}
	return rows
}

func renderGuests(sb *strings.Builder, st booking.State) [][]tgbotapi.InlineKeyboardButton {
	fmt.Fprintf(sb, "%s\n\nQuante persone?", booking.FormatSummary(st.Draft))

	var rows [][]tgbotapi.InlineKeyboardButton
	var current []tgbotapi.InlineKeyboardButton
	for _, n := range booking.GuestOptions {
		label := strconv.Itoa(n)
		if n == st.Draft.NumberOfGuests {
			label = "✅ " + label
		}
		current = append(current, button(label, "guests:"+strconv.Itoa(n)))
		if len(current) == 5 {
			rows = append(rows, current)
			current = nil
		}
	}
	if len(current) > 0 {
		rows = append(rows, current)
	}
	return rows
}

func renderContact(sb *strings.Builder, st booking.State, awaiting booking.Field) [][]tgbotapi.InlineKeyboardButton {
	d := st.Draft
	fmt.Fprintf(sb, "%s\n\n", booking.FormatSummary(d))
	fmt.Fprintf(sb, "👤 %s: %s\n", fieldLabels[booking.FieldName], valueOr(d.CustomerName, "-"))
	fmt.Fprintf(sb, "✉️ %s: %s\n", fieldLabels[booking.FieldEmail], valueOr(d.CustomerEmail, "-"))
	fmt.Fprintf(sb, "📞 %s: %s\n", fieldLabels[booking.FieldPhone], valueOr(d.CustomerPhone, "-"))
	fmt.Fprintf(sb, "📝 %s: %s\n", fieldLabels[booking.FieldSpecialRequests], valueOr(d.SpecialRequests, "-"))
	if prompt, ok := fieldPrompts[awaiting]; ok {
		sb.WriteString("\n✏️ " + prompt)
	}

	return [][]tgbotapi.InlineKeyboardButton{
		{fieldButton(booking.FieldName), fieldButton(booking.FieldEmail)},
		{fieldButton(booking.FieldPhone), fieldButton(booking.FieldSpecialRequests)},
		{button("✅ Conferma prenotazione", "submit")},
	}
}

func fieldButton(f booking.Field) tgbotapi.InlineKeyboardButton {
	return button("✏️ "+fieldLabels[f], "field:"+string(f))
}

func navRow(st booking.State) []tgbotapi.InlineKeyboardButton {
	row := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	if st.Step > booking.StepDateTime {
		row = append(row, button("◀️ Indietro", "nav:prev"))
	}
	if st.Step < booking.StepContact {
		row = append(row, button("Avanti ▶️", "nav:next"))
	}
	return append(row, button("✖️ Annulla", "cancel"), button("📖 Menu", "menu"))
}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func markup(rows [][]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	m := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &m
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
