package worker

import (
	"fmt"
	"log/slog"
	"time"

	"feedpress/internal/pkg/config"
)

// DaemonConfig holds the daemon's operational configuration: the default
// refresh schedule, the concurrency limit, shutdown behavior and the
// health endpoint. Per-feed settings live in feeds.yaml, not here.
type DaemonConfig struct {
	// DefaultSchedule is the 6-field cron expression (seconds first)
	// applied to feeds that do not declare their own schedule.
	DefaultSchedule string

	// Timezone is the IANA timezone the daemon logs and reports in.
	Timezone string

	// MaxConcurrentFetches caps simultaneously running update jobs.
	MaxConcurrentFetches int

	// JobTimeout bounds one feed update job end to end.
	JobTimeout time.Duration

	// GracePeriod is how long shutdown waits for running jobs before
	// abandoning them.
	GracePeriod time.Duration

	// HealthPort serves /health and /health/ready.
	HealthPort int

	// MetricsPort serves the Prometheus /metrics endpoint.
	MetricsPort int

	// DatabasePath is the SQLite database file.
	DatabasePath string

	// FeedsFile is the declarative subscription list.
	FeedsFile string
}

// DefaultConfig returns the daemon defaults: refresh every 30 minutes,
// at most 5 jobs in flight, 30 seconds of shutdown grace.
func DefaultConfig() DaemonConfig {
	return DaemonConfig{
		DefaultSchedule:      "0 */30 * * * *",
		Timezone:             "UTC",
		MaxConcurrentFetches: 5,
		JobTimeout:           10 * time.Minute,
		GracePeriod:          30 * time.Second,
		HealthPort:           9091,
		MetricsPort:          9090,
		DatabasePath:         "feedpress.db",
		FeedsFile:            "feeds.yaml",
	}
}

// Validate checks every field and aggregates the failures.
func (c *DaemonConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSpec(c.DefaultSchedule); err != nil {
		errs = append(errs, fmt.Errorf("default schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.MaxConcurrentFetches, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("max concurrent fetches: %w", err))
	}
	if err := config.ValidateDuration(c.JobTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("job timeout: %w", err))
	}
	if err := config.ValidateDuration(c.GracePeriod, time.Second, 10*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("grace period: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.DatabasePath == "" {
		errs = append(errs, fmt.Errorf("database path: cannot be empty"))
	}
	if c.FeedsFile == "" {
		errs = append(errs, fmt.Errorf("feeds file: cannot be empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv builds the daemon configuration from environment
// variables, falling back to defaults field by field. A bad value never
// stops the daemon; it is logged, counted, and replaced with the
// default (fail-open, same policy for every ambient knob).
//
// Environment variables:
//   - FEED_SCHEDULE       default cron schedule (6 fields)
//   - DAEMON_TIMEZONE     IANA timezone name
//   - MAX_CONCURRENT_FETCHES  1..50
//   - JOB_TIMEOUT         duration, 1m..4h
//   - SHUTDOWN_GRACE      duration, 1s..10m
//   - HEALTH_PORT         1024..65535
//   - METRICS_PORT        1024..65535
//   - DATABASE_PATH       SQLite file path
//   - FEEDS_FILE          feeds.yaml path
func LoadConfigFromEnv(logger *slog.Logger, metrics *config.ConfigMetrics) *DaemonConfig {
	cfg := DefaultConfig()
	fallbackApplied := false

	load := func(field string, result config.ConfigLoadResult) config.ConfigLoadResult {
		if result.FallbackApplied {
			fallbackApplied = true
			metrics.RecordValidationError(field)
			metrics.RecordFallback(field)
			for _, warning := range result.Warnings {
				logger.Warn("configuration fallback applied",
					slog.String("field", field),
					slog.String("warning", warning))
			}
		}
		return result
	}

	cfg.DefaultSchedule = load("default_schedule",
		config.LoadEnvWithFallback("FEED_SCHEDULE", cfg.DefaultSchedule, config.ValidateCronSpec)).Value.(string)

	cfg.Timezone = load("timezone",
		config.LoadEnvWithFallback("DAEMON_TIMEZONE", cfg.Timezone, config.ValidateTimezone)).Value.(string)

	cfg.MaxConcurrentFetches = load("max_concurrent_fetches",
		config.LoadEnvInt("MAX_CONCURRENT_FETCHES", cfg.MaxConcurrentFetches, func(v int) error {
			return config.ValidateIntRange(v, 1, 50)
		})).Value.(int)

	cfg.JobTimeout = load("job_timeout",
		config.LoadEnvDuration("JOB_TIMEOUT", cfg.JobTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Minute, 4*time.Hour)
		})).Value.(time.Duration)

	cfg.GracePeriod = load("shutdown_grace",
		config.LoadEnvDuration("SHUTDOWN_GRACE", cfg.GracePeriod, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Second, 10*time.Minute)
		})).Value.(time.Duration)

	cfg.HealthPort = load("health_port",
		config.LoadEnvInt("HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		})).Value.(int)

	cfg.MetricsPort = load("metrics_port",
		config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		})).Value.(int)

	cfg.DatabasePath = config.LoadEnvString("DATABASE_PATH", cfg.DatabasePath)
	cfg.FeedsFile = config.LoadEnvString("FEEDS_FILE", cfg.FeedsFile)

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg
}
