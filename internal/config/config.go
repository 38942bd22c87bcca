package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BotToken        string  `json:"bot_token"`
	DataDir         string  `json:"data_dir"`
	InitialAdminIDs []int64 `json:"initial_admin_ids,omitempty"`

	// Scheduler
	TickSeconds            int `json:"tick_seconds,omitempty"`
	PacingSeconds          int `json:"pacing_seconds,omitempty"`
	DefaultIntervalSeconds int `json:"default_interval_seconds,omitempty"`
	// FailureAlertAfter is the failure streak that triggers an admin alert.
	FailureAlertAfter int `json:"failure_alert_after,omitempty"`

	// Fetching
	FetchTimeoutSeconds int      `json:"fetch_timeout_seconds,omitempty"`
	MaxRedirects        int      `json:"max_redirects,omitempty"`
	UserAgent           string   `json:"user_agent,omitempty"`
	ExtraPriceSelectors []string `json:"extra_price_selectors,omitempty"`

	// Display
	Timezone string `json:"timezone,omitempty"`
	Calendar string `json:"calendar,omitempty"` // gregorian/jalali
	Digits   string `json:"digits,omitempty"`   // en/fa

	// If true, bot will log debug messages.
	Debug bool `json:"debug,omitempty"`
}

const (
	defaultTick         = 60
	defaultPacing       = 2
	defaultInterval     = 3600
	defaultFailureAlert = 5
	defaultFetchTimeout = 15
	defaultMaxRedirects = 5
	defaultTimezone     = "UTC"
	defaultCalendar     = "gregorian"
	defaultDigits       = "en"
)

func DefaultDataDir() string {
	if v := os.Getenv("PTB_DATA_DIR"); v != "" {
		return v
	}
	return "/var/lib/price-tracker-bot"
}

func DefaultConfigPath() string {
	if v := os.Getenv("PTB_CONFIG"); v != "" {
		return v
	}
	return "/etc/price-tracker-bot/config.json"
}

func (c Config) Tick() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

func (c Config) Pacing() time.Duration {
	return time.Duration(c.PacingSeconds) * time.Second
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "bot.db")
}

func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	var cfg Config
	// 1) Try file
	if b, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid config json: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	// 2) Env fallback / override
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	if v := os.Getenv("PTB_BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	if v := os.Getenv("PTB_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PTB_DEBUG"); v != "" {
		cfg.Debug = v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	if v := os.Getenv("PTB_INITIAL_ADMINS"); v != "" && len(cfg.InitialAdminIDs) == 0 {
		cfg.InitialAdminIDs = parseIDList(v)
	}
	envInt("PTB_TICK_SECONDS", &cfg.TickSeconds)
	envInt("PTB_PACING_SECONDS", &cfg.PacingSeconds)
	envInt("PTB_FETCH_TIMEOUT_SECONDS", &cfg.FetchTimeoutSeconds)
	envInt("PTB_MAX_REDIRECTS", &cfg.MaxRedirects)
	envInt("PTB_DEFAULT_INTERVAL_SECONDS", &cfg.DefaultIntervalSeconds)
	if v := os.Getenv("PTB_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("PTB_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("PTB_CALENDAR"); v != "" {
		cfg.Calendar = v
	}
	if v := os.Getenv("PTB_DIGITS"); v != "" {
		cfg.Digits = v
	}

	// Defaults
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	cfg.DataDir = filepath.Clean(cfg.DataDir)
	positiveOr(&cfg.TickSeconds, defaultTick)
	positiveOr(&cfg.FetchTimeoutSeconds, defaultFetchTimeout)
	positiveOr(&cfg.MaxRedirects, defaultMaxRedirects)
	positiveOr(&cfg.DefaultIntervalSeconds, defaultInterval)
	positiveOr(&cfg.FailureAlertAfter, defaultFailureAlert)
	positiveOr(&cfg.PacingSeconds, defaultPacing)
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	cfg.Calendar = strings.ToLower(cfg.Calendar)
	if cfg.Calendar != "jalali" {
		cfg.Calendar = defaultCalendar
	}
	cfg.Digits = strings.ToLower(cfg.Digits)
	if cfg.Digits != "fa" {
		cfg.Digits = defaultDigits
	}

	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("missing bot_token (set in %s or BOT_TOKEN env)", path)
	}
	return cfg, nil
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		*dst = n
	}
}

func positiveOr(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func parseIDList(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err == nil {
			out = append(out, id)
		}
	}
	return out
}
