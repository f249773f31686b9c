package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"romaantica/internal/booking"
	"romaantica/internal/calendar"
	"romaantica/internal/models"
)

// contactOrder is the order in which text replies fill the contact fields.
var contactOrder = []booking.Field{booking.FieldName, booking.FieldEmail, booking.FieldPhone}

// session is one chat's booking flow. It is the controller's host and renders
// every state change by editing a single message.
type session struct {
	bot    *Bot
	chatID int64
	ctrl   *booking.Controller

	unsubscribe func()

	mu         sync.Mutex
	picker     *calendar.Picker
	messageID  int
	version    uint64
	last       booking.State
	awaiting   booking.Field
	confirming bool
	confirmed  bool
	closed     bool
}

func newSession(b *Bot, chatID int64) *session {
	s := &session{bot: b, chatID: chatID}
	s.ctrl = b.factory(s)
	return s
}

func (s *session) start(ctx context.Context) {
	s.unsubscribe = s.ctrl.Subscribe(s.onState)
	s.ctrl.Start(ctx)
}

func (s *session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.ctrl.Close()
}

// Navigate ends the session and leaves the chat on the destination.
func (s *session) Navigate(route booking.Route) {
	s.bot.end(s)
	switch route {
	case booking.RouteMenu:
		s.bot.sendMenu(s.chatID)
	default:
		s.bot.reply(s.chatID, msgHome)
	}
}

// ScrollTo brings a submission error to the bottom of the chat.
func (s *session) ScrollTo(target string) {
	if target != booking.ScrollError {
		return
	}
	if msg := s.ctrl.State().Error; msg != "" {
		s.bot.reply(s.chatID, "⚠️ "+msg)
	}
}

// Confirm answers with the choice made on the cancel prompt.
func (s *session) Confirm(string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.confirmed
	s.confirmed = false
	return ok
}

func (s *session) onState(st booking.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || st.Version < s.version {
		return
	}
	prevStep := s.last.Step
	s.version = st.Version
	s.last = st
	s.syncPicker(st)
	if st.Step == booking.StepContact && prevStep != booking.StepContact {
		s.awaiting = nextEmptyField(st.Draft)
	}
	if st.Step != booking.StepContact || st.Loading || st.Success {
		s.awaiting = ""
	}
	s.renderLocked()
}

// syncPicker keeps the date picker on the controller's window and date.
func (s *session) syncPicker(st booking.State) {
	bounds, err := calendar.ParseBounds(st.MinDate, st.MaxDate, time.Local)
	if err != nil {
		return
	}
	selected, _ := st.Draft.ParsedDate(time.Local)
	if s.picker == nil {
		s.picker = calendar.NewPicker(bounds, s.bot.now, selected)
		return
	}
	s.picker.SetBounds(bounds)
	if !selected.IsZero() && !selected.Equal(s.picker.Selected()) {
		open := s.picker.IsOpen()
		s.picker.SelectDate(selected)
		if open {
			s.picker.Toggle()
		}
	}
}

func (s *session) rerender() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.renderLocked()
}

func (s *session) renderLocked() {
	text, markup := render(view{
		state:      s.last,
		picker:     s.picker,
		awaiting:   s.awaiting,
		confirming: s.confirming,
	})

	if s.messageID == 0 {
		msg := tgbotapi.NewMessage(s.chatID, text)
		if markup != nil {
			msg.ReplyMarkup = *markup
		}
		sent, err := s.bot.tg.Send(msg)
		if err != nil {
			s.bot.logger.Error().Err(err).Int64("chat_id", s.chatID).Msg("send booking message failed")
			return
		}
		s.messageID = sent.MessageID
		return
	}

	edit := tgbotapi.NewEditMessageText(s.chatID, s.messageID, text)
	edit.ReplyMarkup = markup
	if _, err := s.bot.tg.Send(edit); err != nil && !strings.Contains(err.Error(), "message is not modified") {
		s.bot.logger.Error().Err(err).Int64("chat_id", s.chatID).Msg("edit booking message failed")
	}
}

func (s *session) handleCalendar(action string) {
	s.mu.Lock()
	if s.picker == nil {
		s.mu.Unlock()
		return
	}
	var (
		iso string
		ok  bool
	)
	pick := false
	switch action {
	case "open":
		s.picker.Toggle()
	case "prev":
		s.picker.PrevMonth()
	case "next":
		s.picker.NextMonth()
	case "today":
		iso, ok = s.picker.SelectToday()
		pick = true
	case "tomorrow":
		iso, ok = s.picker.SelectTomorrow()
		pick = true
	case "weekend":
		iso, ok = s.picker.SelectWeekend()
		pick = true
	}
	s.mu.Unlock()

	switch {
	case !pick:
		s.rerender()
	case ok:
		s.ctrl.SetDate(iso)
		s.rerender()
	default:
		s.bot.reply(s.chatID, msgBadDate)
	}
}

func (s *session) pickDate(iso string) {
	s.mu.Lock()
	if s.picker == nil {
		s.mu.Unlock()
		return
	}
	var (
		picked string
		ok     bool
	)
	for _, day := range s.picker.Days() {
		if day.ISO() == iso {
			picked, ok = s.picker.Select(day)
			break
		}
	}
	s.mu.Unlock()

	if !ok {
		s.bot.reply(s.chatID, msgBadDate)
		return
	}
	s.ctrl.SetDate(picked)
	s.rerender()
}

func (s *session) await(field booking.Field) {
	s.mu.Lock()
	s.awaiting = field
	s.mu.Unlock()
	s.rerender()
}

// acceptText stores a text reply in the awaited contact field.
func (s *session) acceptText(text string) bool {
	s.mu.Lock()
	field := s.awaiting
	s.mu.Unlock()
	if field == "" {
		return false
	}

	s.ctrl.SetContact(field, text)

	st := s.ctrl.State()
	s.mu.Lock()
	if field == booking.FieldSpecialRequests {
		s.awaiting = ""
	} else {
		s.awaiting = nextEmptyField(st.Draft)
	}
	s.mu.Unlock()
	s.rerender()
	return true
}

func (s *session) requestCancel() {
	st := s.ctrl.State()
	if !st.HasInput() || st.Success {
		s.ctrl.Cancel()
		return
	}
	s.mu.Lock()
	s.confirming = true
	s.mu.Unlock()
	s.rerender()
}

func (s *session) confirmCancel() {
	s.mu.Lock()
	s.confirming = false
	s.confirmed = true
	s.mu.Unlock()
	s.ctrl.Cancel()
}

func (s *session) dismissCancel() {
	s.mu.Lock()
	s.confirming = false
	s.confirmed = false
	s.mu.Unlock()
	s.rerender()
}

func nextEmptyField(d models.DraftBooking) booking.Field {
	for _, f := range contactOrder {
		switch {
		case f == booking.FieldName && d.CustomerName == "",
			f == booking.FieldEmail && d.CustomerEmail == "",
			f == booking.FieldPhone && d.CustomerPhone == "":
			return f
		}
	}
	return ""
}
