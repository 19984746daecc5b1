package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/yussieik/pazpaz-sub002/internal/pkg/config"
)

// WorkerConfig holds the configuration for the reminder worker. It controls
// the cron schedule, timezone, reminder window parameters, and the health
// check port.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// All fields have defaults and validation rules so the worker can operate
// safely even with invalid or missing configuration.
type WorkerConfig struct {
	// CronSchedule is the cron expression for reminder scans.
	// Format: "minute hour day month weekday"
	// Default: "*/15 * * * *" (every 15 minutes)
	CronSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Example: "Asia/Jerusalem", "UTC", "America/New_York"
	// Default: "UTC"
	Timezone string

	// RemindMaxConcurrent is the maximum number of concurrent reminder
	// deliveries per scan. Range: 1-50. Default: 5.
	RemindMaxConcurrent int

	// ReminderLeadTime is how far ahead of the appointment start the
	// reminder fires. Default: 24 hours.
	ReminderLeadTime time.Duration

	// ReminderWindow is the width of each scan window. It should match
	// the cron interval so consecutive runs cover adjacent windows.
	// Default: 15 minutes.
	ReminderWindow time.Duration

	// ScanTimeout is the maximum duration for a single reminder scan.
	// After this timeout the scan is cancelled. Default: 5 minutes.
	ScanTimeout time.Duration

	// HealthPort is the port number for the health check HTTP server.
	// Range: 1024-65535. Default: 9091.
	HealthPort int
}

// DefaultConfig returns a WorkerConfig with production defaults: scan every
// 15 minutes for appointments starting 24 hours out, deliver up to 5
// reminders in parallel, and serve health checks on 9091.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:        "*/15 * * * *",
		Timezone:            "UTC",
		RemindMaxConcurrent: 5,
		ReminderLeadTime:    24 * time.Hour,
		ReminderWindow:      15 * time.Minute,
		ScanTimeout:         5 * time.Minute,
		HealthPort:          9091,
	}
}

// Validate checks if the configuration values are valid. If multiple fields
// are invalid, all errors are collected and returned together.
func (c *WorkerConfig) Validate() error {
	var errors []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errors = append(errors, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.RemindMaxConcurrent, 1, 50); err != nil {
		errors = append(errors, fmt.Errorf("remind max concurrent: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.ReminderLeadTime); err != nil {
		errors = append(errors, fmt.Errorf("reminder lead time: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.ReminderWindow); err != nil {
		errors = append(errors, fmt.Errorf("reminder window: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.ScanTimeout); err != nil {
		errors = append(errors, fmt.Errorf("scan timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to default values on failure.
//
// This function implements the fail-open strategy:
//  1. Start with DefaultConfig() as base
//  2. Load each field from environment variables
//  3. Validate each loaded value
//  4. If validation fails: use default value, log warning, increment metrics
//  5. Never return error - always return a valid configuration
//
// Environment variables:
//   - CRON_SCHEDULE: Cron expression (default: "*/15 * * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "UTC")
//   - REMIND_MAX_CONCURRENT: Integer 1-50 (default: 5)
//   - REMINDER_LEAD_TIME: Duration string, e.g. "24h" (default: 24 hours)
//   - REMINDER_WINDOW: Duration string, e.g. "15m" (default: 15 minutes)
//   - SCAN_TIMEOUT: Duration string, e.g. "5m" (default: 5 minutes)
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	warn := func(field string, warnings []string) {
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	if result.FallbackApplied {
		warn("cron_schedule", result.Warnings)
	}

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		warn("timezone", result.Warnings)
	}

	result = config.LoadEnvInt("REMIND_MAX_CONCURRENT", cfg.RemindMaxConcurrent, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.RemindMaxConcurrent = result.Value.(int)
	if result.FallbackApplied {
		warn("remind_max_concurrent", result.Warnings)
	}

	result = config.LoadEnvDuration("REMINDER_LEAD_TIME", cfg.ReminderLeadTime, func(d time.Duration) error {
		return config.ValidateDuration(d, 15*time.Minute, 7*24*time.Hour)
	})
	cfg.ReminderLeadTime = result.Value.(time.Duration)
	if result.FallbackApplied {
		warn("reminder_lead_time", result.Warnings)
	}

	result = config.LoadEnvDuration("REMINDER_WINDOW", cfg.ReminderWindow, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 24*time.Hour)
	})
	cfg.ReminderWindow = result.Value.(time.Duration)
	if result.FallbackApplied {
		warn("reminder_window", result.Warnings)
	}

	result = config.LoadEnvDuration("SCAN_TIMEOUT", cfg.ScanTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 30*time.Second, time.Hour)
	})
	cfg.ScanTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		warn("scan_timeout", result.Warnings)
	}

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		warn("health_port", result.Warnings)
	}

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	// Always return valid config (fail-open strategy)
	return &cfg, nil
}
