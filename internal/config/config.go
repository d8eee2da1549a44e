// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults and Load(ctx) to layer file and env on top.
// - Keys are flat and match the koanf tags below, e.g. SPOTRANK_STORE_DRIVER -> store_driver.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/spotrank/internal/domain/tier"
)

// Store drivers understood by the server and the seed tool.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRemote = "remote"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the ranking store: memory, sqlite or remote.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// RemoteBaseURL, RemoteToken and RemoteRPS configure the remote driver.
	RemoteBaseURL string  `koanf:"remote_base_url"`
	RemoteToken   string  `koanf:"remote_token"`
	RemoteRPS     float64 `koanf:"remote_rps"`

	// RemoteOwner is the user remote_token writes for. Empty resolves it from the backend.
	RemoteOwner string `koanf:"remote_owner"`

	// Tier boundaries on the [0, 10] score axis.
	TierLowCut   float64 `koanf:"tier_low_cut"`
	TierHighCut  float64 `koanf:"tier_high_cut"`
	TierHeadroom float64 `koanf:"tier_headroom"`

	// FeedSize bounds the recent activity feed.
	FeedSize int `koanf:"feed_size"`

	// ActivityQueueSize bounds the in-memory activity queue.
	ActivityQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of activity workers.
	WorkerCount int `koanf:"worker_count"`

	// APIRPS and APIBurst configure the per-client API rate limiter. Zero disables it.
	APIRPS   float64 `koanf:"api_rps"`
	APIBurst int     `koanf:"api_burst"`

	// CORSAllowedOrigins is a comma separated list of allowed origins.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	// MetricsSchedule is the cron spec for periodic metric refreshes.
	MetricsSchedule string `koanf:"metrics_schedule"`
}

// New creates a Config populated with defaults.
func New() *Config {
	b := tier.DefaultBounds()
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		StoreDriver:        DriverMemory,
		SQLitePath:         "spotrank.db",
		RemoteRPS:          5,
		TierLowCut:         b.LowCut,
		TierHighCut:        b.HighCut,
		TierHeadroom:       b.Headroom,
		FeedSize:           50,
		ActivityQueueSize:  1024,
		WorkerCount:        runtime.NumCPU(),
		APIRPS:             20,
		APIBurst:           40,
		CORSAllowedOrigins: "*",
		MetricsSchedule:    "@every 10s",
	}
}

// TierBounds returns the configured tier boundaries.
func (c *Config) TierBounds() tier.Bounds {
	return tier.Bounds{LowCut: c.TierLowCut, HighCut: c.TierHighCut, Headroom: c.TierHeadroom}
}

// Origins splits CORSAllowedOrigins into trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate checks the configuration for values the service cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	case DriverRemote:
		if c.RemoteBaseURL == "" {
			return fmt.Errorf("%w: remote_base_url must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.ActivityQueueSize <= 0 || c.WorkerCount <= 0 || c.FeedSize <= 0 {
		return fmt.Errorf("%w: queue_size, worker_count and feed_size must be positive", ErrInvalidConfig)
	}
	if err := c.TierBounds().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
