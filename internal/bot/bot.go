// Package bot hosts the booking flow in Telegram chats.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"romaantica/internal/booking"
)

// ControllerFactory creates a booking controller driven by host.
type ControllerFactory func(host booking.Host) *booking.Controller

const (
	msgWelcome = "Benvenuto da Roma Antica! 🍝\n" +
		"Scrivi /prenota per prenotare un tavolo, /menu per il nostro menu."
	msgHelp = "Comandi disponibili:\n" +
		"/prenota - nuova prenotazione\n" +
		"/annulla - annulla la prenotazione in corso\n" +
		"/menu - il nostro menu\n" +
		"/aiuto - questo messaggio"
	msgNoSession  = "Nessuna prenotazione in corso. Scrivi /prenota per iniziare."
	msgHome       = "Grazie per aver scelto Roma Antica! Scrivi /prenota per una nuova prenotazione."
	msgMenu       = "Scopri il nostro menu"
	msgBadDate    = "Data non disponibile"
	msgUseButtons = "Usa i pulsanti del messaggio di prenotazione."
)

// Bot routes Telegram updates to one booking session per chat.
type Bot struct {
	tg      telegramClient
	factory ControllerFactory
	now     func() time.Time
	menuURL string
	logger  *zerolog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

// Options configures a Bot.
type Options struct {
	MenuURL string
	Now     func() time.Time
}

// New connects to Telegram with token.
func New(token string, factory ControllerFactory, opts Options, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return newBot(&realTelegramClient{api: api}, factory, opts, logger)
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(tg telegramClient, factory ControllerFactory, opts Options, logger *zerolog.Logger) (*Bot, error) {
	return newBot(tg, factory, opts, logger)
}

func newBot(tg telegramClient, factory ControllerFactory, opts Options, logger *zerolog.Logger) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	if factory == nil {
		return nil, fmt.Errorf("controller factory is nil")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Bot{
		tg:       tg,
		factory:  factory,
		now:      opts.Now,
		menuURL:  opts.MenuURL,
		logger:   logger,
		sessions: make(map[int64]*session),
	}, nil
}

// Start polls updates until ctx is done, then closes every session.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("booking bot authorized")

	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case update := <-updates:
			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			updateCtx := l.WithContext(ctx)
			b.handleUpdate(updateCtx, &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if update.CallbackQuery != nil {
		l.Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("Handling callback query")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		l.Debug().
			Int64("chat_id", update.Message.Chat.ID).
			Str("text", update.Message.Text).
			Msg("Handling message")
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		if i := strings.Index(cmd, "@"); i > 0 {
			cmd = cmd[:i]
		}
		switch cmd {
		case "/start":
			b.reply(chatID, msgWelcome)
		case "/prenota":
			b.startSession(ctx, chatID)
		case "/annulla":
			if s := b.session(chatID); s != nil {
				s.requestCancel()
			} else {
				b.reply(chatID, msgNoSession)
			}
		case "/menu":
			if s := b.session(chatID); s != nil {
				s.ctrl.GoToMenu()
			} else {
				b.sendMenu(chatID)
			}
		case "/aiuto", "/help":
			b.reply(chatID, msgHelp)
		default:
			b.reply(chatID, msgHelp)
		}
		return
	}

	s := b.session(chatID)
	if s == nil {
		b.reply(chatID, msgNoSession)
		return
	}
	if !s.acceptText(text) {
		b.reply(chatID, msgUseButtons)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	_ = b.answerCallback(cq.ID)
	data := cq.Data
	if data == "noop" {
		return
	}
	chatID := cq.Message.Chat.ID

	s := b.session(chatID)
	if s == nil {
		b.reply(chatID, msgNoSession)
		return
	}

	key, arg, _ := strings.Cut(data, ":")
	switch key {
	case "cal":
		s.handleCalendar(arg)
	case "date":
		s.pickDate(arg)
	case "time":
		s.ctrl.SelectTime(arg)
	case "guests":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return
		}
		s.ctrl.SetGuests(n)
	case "field":
		s.await(booking.Field(arg))
	case "nav":
		if arg == "next" {
			s.ctrl.Next()
		} else {
			s.ctrl.Prev()
		}
	case "submit":
		s.ctrl.Submit()
	case "cancel":
		switch arg {
		case "yes":
			s.confirmCancel()
		case "no":
			s.dismissCancel()
		default:
			s.requestCancel()
		}
	case "menu":
		s.ctrl.GoToMenu()
	default:
		zerolog.Ctx(ctx).Warn().Str("data", data).Msg("unknown callback")
	}
}

// startSession replaces the chat's session with a fresh one.
func (b *Bot) startSession(ctx context.Context, chatID int64) {
	if old := b.detach(chatID); old != nil {
		old.close()
	}
	s := newSession(b, chatID)
	b.mu.Lock()
	b.sessions[chatID] = s
	b.mu.Unlock()

	s.start(ctx)
	zerolog.Ctx(ctx).Info().Int64("chat_id", chatID).Str("session", s.ctrl.SessionID()).Msg("booking session started")
}

func (b *Bot) session(chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

// detach removes the chat's session from the table and returns it.
func (b *Bot) detach(chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.sessions[chatID]
	delete(b.sessions, chatID)
	return s
}

// end removes s if it is still the chat's session.
func (b *Bot) end(s *session) {
	b.mu.Lock()
	if b.sessions[s.chatID] == s {
		delete(b.sessions, s.chatID)
	}
	b.mu.Unlock()
	s.close()
}

func (b *Bot) closeAll() {
	b.mu.Lock()
	sessions := make([]*session, 0, len(b.sessions))
	for id, s := range b.sessions {
		sessions = append(sessions, s)
		delete(b.sessions, id)
	}
	b.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}

func (b *Bot) sendMenu(chatID int64) {
	text := msgMenu
	if b.menuURL != "" {
		text += ": " + b.menuURL
	}
	b.reply(chatID, text)
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.tg.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send message failed")
	}
}

func (b *Bot) answerCallback(id string) error {
	if id == "" {
		return nil
	}
	_, err := b.tg.Request(tgbotapi.NewCallback(id, ""))
	return err
}
