package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	portalconfig "newsportal/internal/config"
	"newsportal/pkg/config"
)

// Config holds the ingestion worker settings.
type Config struct {
	// Schedule is a five-field cron expression or descriptor, e.g. "*/15 * * * *".
	Schedule string
	// Timezone is the IANA zone the schedule is evaluated in.
	Timezone string
	// RunTimeout bounds one sweep over all channels.
	RunTimeout time.Duration
	// Watch enables re-ingestion on file changes in addition to the schedule.
	Watch bool
	// WatchDebounce is how long the content tree must be quiet before a watch run.
	WatchDebounce time.Duration
	// Port serves /health, /health/ready and /metrics.
	Port int
	// ContentRoot holds one directory per channel id.
	ContentRoot string
}

// DefaultConfig returns the worker defaults.
func DefaultConfig() Config {
	return Config{
		Schedule:      portalconfig.DefaultIngestCron,
		Timezone:      "UTC",
		RunTimeout:    10 * time.Minute,
		WatchDebounce: 2 * time.Second,
		Port:          portalconfig.DefaultMetricsPort,
	}
}

// Validate checks every field and reports all problems together.
func (c *Config) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.RunTimeout); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if c.Watch {
		if err := config.ValidatePositiveDuration(c.WatchDebounce); err != nil {
			errs = append(errs, fmt.Errorf("watch debounce: %w", err))
		}
	}
	if err := config.ValidateIntRange(c.Port, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("port: %w", err))
	}
	if c.ContentRoot == "" {
		errs = append(errs, errors.New("content root: required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("worker config: %w", errors.Join(errs...))
	}
	return nil
}

// LoadConfig derives the worker configuration from the portal configuration
// and the worker-only variables:
//   - WORKER_TIMEZONE (default "UTC")
//   - INGEST_TIMEOUT, 1m to 4h (default 10m)
//   - INGEST_WATCH_DEBOUNCE, 100ms to 1m (default 2s)
//
// Invalid values fall back to their defaults; the fallbacks are logged and
// counted in metrics, which may be nil.
func LoadConfig(base *portalconfig.Config, logger *slog.Logger, metrics *Metrics) Config {
	cfg := DefaultConfig()
	cfg.Schedule = base.IngestCron
	cfg.Watch = base.IngestWatch
	cfg.Port = base.MetricsPort
	cfg.ContentRoot = base.ContentRoot

	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	f := config.NewFallbacks(logger, cm)
	cfg.Timezone = config.Observe(f, "timezone",
		config.Load("WORKER_TIMEZONE", cfg.Timezone, config.String, config.ValidateTimezone))
	cfg.RunTimeout = config.Observe(f, "ingest_timeout",
		config.Load("INGEST_TIMEOUT", cfg.RunTimeout, config.Duration, func(d time.Duration) error {
			return config.ValidateDurationRange(d, time.Minute, 4*time.Hour)
		}))
	cfg.WatchDebounce = config.Observe(f, "watch_debounce",
		config.Load("INGEST_WATCH_DEBOUNCE", cfg.WatchDebounce, config.Duration, func(d time.Duration) error {
			return config.ValidateDurationRange(d, 100*time.Millisecond, time.Minute)
		}))
	f.Done()
	return cfg
}
