// Package app wires configuration, backend, events and metrics for the booking hosts.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"romaantica/internal/booking"
	"romaantica/internal/bookingapi"
	"romaantica/internal/config"
	"romaantica/internal/events"
	"romaantica/internal/slots"
)

// NewLogger builds the console logger used by the binaries.
func NewLogger(out io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}

// App holds the long-lived dependencies shared by every booking session.
type App struct {
	cfg    *config.Config
	logger zerolog.Logger

	backend booking.Backend
	client  *bookingapi.Client
	planner *slots.Planner
	redis   *redis.Client
	bus     *events.Bus

	mu       sync.RWMutex
	schedule slots.Schedule
}

// New selects the backend: the remote API when api.enabled, otherwise the
// in-process planner fed by the schedule file.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	schedule, err := config.LoadSchedule(cfg.SchedulePath)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		schedule: schedule,
	}
	a.bus = events.NewBus(func(ev events.Event, err error) {
		a.logger.Warn().Err(err).Str("event", ev.Type).Msg("event handler failed")
	})
	if cfg.EventLogEnabled {
		a.bus.Subscribe("*", func(ev events.Event) error {
			a.logger.Info().Int64("seq", ev.ID).Str("event", ev.Type).RawJSON("payload", ev.Payload).Msg("booking event")
			return nil
		})
	}

	if cfg.API.Enabled {
		if cfg.API.BaseURL == "" {
			return nil, fmt.Errorf("api.base_url is required when api.enabled")
		}
		client := bookingapi.NewClient(cfg.API.BaseURL, cfg.API.APIKey, cfg.APITimeout())
		client.SetLogger(&logger)
		client.UseRateLimit(cfg.API.RatePerSecond, cfg.API.Burst)
		client.SetHealthPath(cfg.API.HealthPath)
		if cfg.Redis.Address != "" && cfg.API.CacheTTLSeconds > 0 {
			a.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			client.UseRedisCache(a.redis, cfg.CacheTTL())
		}
		a.client = client
		a.backend = client
		logger.Info().Str("base_url", cfg.API.BaseURL).Bool("cache", a.redis != nil).Msg("using booking api backend")
		return a, nil
	}

	planner := slots.NewPlanner(schedule, nil)
	planner.SetLogger(&logger)
	a.planner = planner
	a.backend = planner

	err = config.WatchSchedule(ctx, cfg.SchedulePath, cfg.ScheduleWatchInterval(), a.setSchedule, func(err error) {
		a.logger.Error().Err(err).Str("path", cfg.SchedulePath).Msg("schedule reload failed")
	})
	if err != nil {
		return nil, fmt.Errorf("watch schedule: %w", err)
	}
	logger.Info().Int("times", len(schedule.Times())).Msg("using local planner backend")
	return a, nil
}

func (a *App) setSchedule(s slots.Schedule) {
	a.mu.Lock()
	a.schedule = s
	a.mu.Unlock()
	if a.planner != nil {
		a.planner.SetSchedule(s)
	}
}

// Schedule is the current opening schedule.
func (a *App) Schedule() slots.Schedule {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.schedule
}

func (a *App) Backend() booking.Backend { return a.backend }

func (a *App) Bus() *events.Bus { return a.bus }

func (a *App) Logger() *zerolog.Logger { return &a.logger }

// ControllerOptions derives controller settings from the config and the
// current schedule.
func (a *App) ControllerOptions() booking.Options {
	return booking.Options{
		RedirectDelay:    a.cfg.RedirectDelay(),
		MaxAdvanceMonths: a.cfg.Booking.MaxAdvanceMonths,
		FallbackTimes:    a.Schedule().Times(),
		SlotTimeout:      a.cfg.SlotTimeout(),
		SubmitTimeout:    a.cfg.SubmitTimeout(),
		Publisher:        a.bus,
		Logger:           &a.logger,
	}
}

// NewController creates a booking session for host.
func (a *App) NewController(host booking.Host) *booking.Controller {
	return booking.NewController(a.backend, host, a.ControllerOptions())
}

// Close releases the redis connection.
func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
