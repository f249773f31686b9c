package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath         = "configs/config.yaml"
	DefaultSchedulePath = "configs/schedule.yaml"
	PathEnv             = "BOOKING_CONFIG_PATH"
)

type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	API struct {
		Enabled         bool    `yaml:"enabled"`
		BaseURL         string  `yaml:"base_url"`
		APIKey          string  `yaml:"api_key"`
		TimeoutSeconds  int     `yaml:"timeout_seconds"`
		RatePerSecond   float64 `yaml:"rate_per_second"`
		Burst           int     `yaml:"burst"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
		HealthPath      string  `yaml:"health_path"`
	} `yaml:"api"`

	Booking struct {
		MaxAdvanceMonths     int `yaml:"max_advance_months"`
		RedirectDelaySeconds int `yaml:"redirect_delay_seconds"`
		SlotTimeoutSeconds   int `yaml:"slot_timeout_seconds"`
		SubmitTimeoutSeconds int `yaml:"submit_timeout_seconds"`
	} `yaml:"booking"`

	SchedulePath         string `yaml:"schedule_path"`
	ScheduleWatchSeconds int    `yaml:"schedule_watch_seconds"`
	EventLogEnabled      bool   `yaml:"event_log_enabled"`
	MenuURL              string `yaml:"menu_url"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads the YAML config at path (or $BOOKING_CONFIG_PATH, or the default).
// Variables from .env are loaded first so ${VAR} placeholders can use them.
// A missing default file yields the built-in defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if path == "" {
		path = os.Getenv(PathEnv)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Support ${ENV_VAR} placeholders in YAML config.
		data = []byte(os.ExpandEnv(string(data)))
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 10
	}
	if c.Booking.MaxAdvanceMonths <= 0 {
		c.Booking.MaxAdvanceMonths = 3
	}
	if c.Booking.RedirectDelaySeconds <= 0 {
		c.Booking.RedirectDelaySeconds = 3
	}
	if c.SchedulePath == "" {
		c.SchedulePath = DefaultSchedulePath
	}
	if c.ScheduleWatchSeconds <= 0 {
		c.ScheduleWatchSeconds = 30
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.API.CacheTTLSeconds) * time.Second
}

func (c *Config) RedirectDelay() time.Duration {
	return time.Duration(c.Booking.RedirectDelaySeconds) * time.Second
}

// SlotTimeout is zero when unset, selecting the controller default.
func (c *Config) SlotTimeout() time.Duration {
	return time.Duration(c.Booking.SlotTimeoutSeconds) * time.Second
}

func (c *Config) SubmitTimeout() time.Duration {
	return time.Duration(c.Booking.SubmitTimeoutSeconds) * time.Second
}

func (c *Config) ScheduleWatchInterval() time.Duration {
	return time.Duration(c.ScheduleWatchSeconds) * time.Second
}
