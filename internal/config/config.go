// Package config defines service configuration and its layered loader.
//
// Conventions:
//   - New returns defaults; Load layers a YAML file and env vars on top.
//   - Validation errors wrap ErrInvalidConfig; source errors wrap ErrLoadConfig.
package config

import (
	"fmt"
	"time"

	"github.com/okian/covidboard/pkg/metrics"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataPath is the country snapshot CSV.
	DataPath string `koanf:"data_path"`

	// HistoryURL is the base URL of the historical statistics API.
	// Empty disables the live timeline; the placeholder is used instead.
	HistoryURL string `koanf:"history_url"`

	// HistoryDays is the lastdays query value; "all" or a day count.
	HistoryDays string `koanf:"history_days"`

	// HistoryTimeoutMS bounds the single timeline request.
	HistoryTimeoutMS int `koanf:"history_timeout_ms"`

	// PlaceholderStart and PlaceholderDays shape the synthetic timeline.
	PlaceholderStart string `koanf:"placeholder_start"`
	PlaceholderDays  int    `koanf:"placeholder_days"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DefaultTopN is used when a request omits limit.
	DefaultTopN int `koanf:"default_top_n"`

	// Metrics settings. MetricsEnv, when set, becomes an "env" label on
	// every collector.
	MetricsEnabled   bool   `koanf:"metrics_enabled"`
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsEnv       string `koanf:"metrics_env"`
	MetricsRefreshMS int    `koanf:"metrics_refresh_ms"`

	// MetricsLatencyBuckets overrides the HTTP latency histogram buckets,
	// in seconds. Empty keeps the Prometheus defaults.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		DataPath:            "country_wise_latest.csv",
		HistoryURL:          "https://disease.sh",
		HistoryDays:         "30",
		HistoryTimeoutMS:    2000,
		PlaceholderStart:    "2020-01-22",
		PlaceholderDays:     100,
		MaxLeaderboardLimit: 200,
		DefaultTopN:         20,
		MetricsEnabled:      true,
		MetricsNamespace:    "covidboard",
		MetricsRefreshMS:    10000,
	}
}

// HistoryTimeout returns HistoryTimeoutMS as a duration.
func (c *Config) HistoryTimeout() time.Duration {
	return time.Duration(c.HistoryTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// MetricsOptions translates the metrics keys for metrics.Init.
func (c *Config) MetricsOptions() []metrics.Option {
	opts := []metrics.Option{
		metrics.WithMetricsEnabled(c.MetricsEnabled),
		metrics.WithNamespace(c.MetricsNamespace),
		metrics.WithRefreshInterval(c.MetricsRefresh()),
	}
	if len(c.MetricsLatencyBuckets) > 0 {
		opts = append(opts, metrics.WithHistogramBuckets(c.MetricsLatencyBuckets))
	}
	if c.MetricsEnv != "" {
		opts = append(opts, metrics.WithCustomLabels(map[string]string{"env": c.MetricsEnv}))
	}
	return opts
}

// PlaceholderStartDate parses PlaceholderStart.
func (c *Config) PlaceholderStartDate() (time.Time, error) {
	return time.Parse("2006-01-02", c.PlaceholderStart)
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataPath == "":
		return fmt.Errorf("%w: data_path must not be empty", ErrInvalidConfig)
	case c.HistoryTimeoutMS <= 0:
		return fmt.Errorf("%w: history_timeout_ms must be positive", ErrInvalidConfig)
	case c.PlaceholderDays <= 0:
		return fmt.Errorf("%w: placeholder_days must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.DefaultTopN <= 0 || c.DefaultTopN > c.MaxLeaderboardLimit:
		return fmt.Errorf("%w: default_top_n must be in 1..max_leaderboard_limit", ErrInvalidConfig)
	case c.MetricsNamespace == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	case c.MetricsRefreshMS <= 0:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	}
	for i := 1; i < len(c.MetricsLatencyBuckets); i++ {
		if c.MetricsLatencyBuckets[i] <= c.MetricsLatencyBuckets[i-1] {
			return fmt.Errorf("%w: metrics_latency_buckets must be increasing", ErrInvalidConfig)
		}
	}
	if _, err := c.PlaceholderStartDate(); err != nil {
		return fmt.Errorf("%w: placeholder_start: %w", ErrInvalidConfig, err)
	}
	return nil
}
