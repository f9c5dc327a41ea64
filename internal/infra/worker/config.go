package worker

import (
	"fmt"
	"log/slog"
	"time"

	"bip-digest/internal/pkg/config"
)

// Config holds the configuration for the worker component: where the
// source list lives, when digest runs fire and how the worker exposes
// its health and metrics endpoints.
//
// Every field is loaded from the environment with a validated fallback,
// so a bad value never stops the worker from starting.
type Config struct {
	// ConfigPath is the path of the YAML source configuration.
	// Default: "config.yaml"
	ConfigPath string

	// CronSchedule fires the digest run.
	// Format: "minute hour day month weekday"
	// Default: "30 5 * * *" (every day at 5:30)
	CronSchedule string

	// Timezone is the IANA timezone the schedule is evaluated in.
	// Default: "Europe/Warsaw" (BIP sites publish in local time)
	Timezone string

	// RunTimeout caps a single digest run, scrape and article
	// generation included. Range: 1m-4h. Default: 30 minutes.
	RunTimeout time.Duration

	// OutputDir is where generated articles are written.
	// Default: "articles"
	OutputDir string

	// HealthPort serves the liveness and readiness probes.
	// Range: 1024-65535. Default: 9091.
	HealthPort int
}

// DefaultConfig returns a Config with production-ready defaults:
// a daily run at 5:30 local time with a 30-minute cap.
func DefaultConfig() Config {
	return Config{
		ConfigPath:   "config.yaml",
		CronSchedule: "30 5 * * *",
		Timezone:     "Europe/Warsaw",
		RunTimeout:   30 * time.Minute,
		OutputDir:    "articles",
		HealthPort:   9091,
	}
}

// Validate checks the configuration using the shared validators.
// All failures are collected and returned together.
func (c *Config) Validate() error {
	var errors []error

	if c.ConfigPath == "" {
		errors = append(errors, fmt.Errorf("config path: cannot be empty"))
	}

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errors = append(errors, fmt.Errorf("cron schedule: %w", err))
	}

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}

	if err := config.ValidatePositiveDuration(c.RunTimeout); err != nil {
		errors = append(errors, fmt.Errorf("run timeout: %w", err))
	}

	if c.OutputDir == "" {
		errors = append(errors, fmt.Errorf("output dir: cannot be empty"))
	}

	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// LoadConfigFromEnv loads the worker configuration from environment
// variables with validated fallback to defaults. It never returns an
// error: invalid values are replaced by defaults, logged as warnings
// and counted in the worker metrics.
//
// Environment variables:
//   - DIGEST_CONFIG: Path of the YAML source configuration
//   - CRON_SCHEDULE: Cron expression (default: "30 5 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "Europe/Warsaw")
//   - RUN_TIMEOUT: Duration string, e.g. "30m" (range 1m-4h)
//   - DIGEST_OUTPUT_DIR: Directory for generated articles
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *Metrics) (*Config, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	cfg.ConfigPath = config.LoadEnvString("DIGEST_CONFIG", cfg.ConfigPath)
	cfg.OutputDir = config.LoadEnvString("DIGEST_OUTPUT_DIR", cfg.OutputDir)

	result := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		recordFallback(logger, metrics, "cron_schedule", result.Warnings)
	}

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		recordFallback(logger, metrics, "timezone", result.Warnings)
	}

	result = config.LoadEnvDuration("RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.RunTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		fallbackApplied = true
		recordFallback(logger, metrics, "run_timeout", result.Warnings)
	}

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		recordFallback(logger, metrics, "health_port", result.Warnings)
	}

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}

func recordFallback(logger *slog.Logger, metrics *Metrics, field string, warnings []string) {
	metrics.RecordValidationError(field)
	metrics.RecordFallback(field)
	for _, warning := range warnings {
		logger.Warn("Configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}
}
