package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nduyhai/placement/internal/allocation"
)

type Config struct {
	ListenAddr string

	PanelURL     string
	PanelAPIKey  string
	PanelTimeout time.Duration
	PanelRetries int

	JournalPath string
	DemoMode    bool

	// AllowLocalhost lets loopback allocations be bound when nothing else is free.
	AllowLocalhost bool

	LogLevel slog.Level

	// Invalid names variables that were set but not understood; their defaults were used.
	Invalid []string
}

func Load() *Config {
	var e env
	cfg := &Config{
		ListenAddr: envOr("PLACEMENT_LISTEN_ADDR", ":8080"),

		PanelURL:     envOr("PLACEMENT_PANEL_URL", "http://localhost"),
		PanelAPIKey:  os.Getenv("PLACEMENT_PANEL_API_KEY"),
		PanelTimeout: e.durationOr("PLACEMENT_PANEL_TIMEOUT", 15*time.Second),
		PanelRetries: e.intOr("PLACEMENT_PANEL_RETRIES", 2),

		JournalPath: envOr("PLACEMENT_JOURNAL_PATH", "placement.db"),
		DemoMode:    e.boolOr("PLACEMENT_DEMO_MODE", false),

		AllowLocalhost: e.boolOr("PLACEMENT_ALLOW_LOCALHOST", true),

		LogLevel: e.levelOr("PLACEMENT_LOG_LEVEL", slog.LevelInfo),
	}
	cfg.Invalid = e.invalid
	return cfg
}

// Priority returns the allocation priority implied by AllowLocalhost.
func (c *Config) Priority() allocation.Priority {
	if c.AllowLocalhost {
		return allocation.DefaultPriority
	}
	return allocation.StrictPriority
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// env records variables that were set but could not be parsed.
type env struct {
	invalid []string
}

func (e *env) lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func (e *env) reject(key string) {
	e.invalid = append(e.invalid, key)
}

func (e *env) boolOr(key string, fallback bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.reject(key)
		return fallback
	}
	return b
}

func (e *env) durationOr(key string, fallback time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.reject(key)
		return fallback
	}
	return d
}

func (e *env) intOr(key string, fallback int) int {
	v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		e.reject(key)
		return fallback
	}
	return n
}

func (e *env) levelOr(key string, fallback slog.Level) slog.Level {
	v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		e.reject(key)
		return fallback
	}
	return l
}
