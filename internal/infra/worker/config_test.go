package worker

import (
	"log/slog"
	"testing"
	"time"
)

// Shared across the test binary: promauto panics on duplicate metric
// registration, so WorkerMetrics can only be constructed once.
var testMetrics = NewWorkerMetrics()

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.CronSchedule != "*/15 * * * *" {
		t.Errorf("Expected CronSchedule '*/15 * * * *', got '%s'", config.CronSchedule)
	}
	if config.Timezone != "UTC" {
		t.Errorf("Expected Timezone 'UTC', got '%s'", config.Timezone)
	}
	if config.RemindMaxConcurrent != 5 {
		t.Errorf("Expected RemindMaxConcurrent 5, got %d", config.RemindMaxConcurrent)
	}
	if config.ReminderLeadTime != 24*time.Hour {
		t.Errorf("Expected ReminderLeadTime 24h, got %v", config.ReminderLeadTime)
	}
	if config.ReminderWindow != 15*time.Minute {
		t.Errorf("Expected ReminderWindow 15m, got %v", config.ReminderWindow)
	}
	if config.ScanTimeout != 5*time.Minute {
		t.Errorf("Expected ScanTimeout 5m, got %v", config.ScanTimeout)
	}
	if config.HealthPort != 9091 {
		t.Errorf("Expected HealthPort 9091, got %d", config.HealthPort)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestWorkerConfig_Validate_InvalidCronSchedule(t *testing.T) {
	config := DefaultConfig()
	config.CronSchedule = "not a cron expression"

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for invalid cron schedule")
	}
}

func TestWorkerConfig_Validate_InvalidTimezone(t *testing.T) {
	config := DefaultConfig()
	config.Timezone = "Mars/Olympus_Mons"

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for invalid timezone")
	}
}

func TestWorkerConfig_Validate_RemindMaxConcurrentBoundary(t *testing.T) {
	tests := []struct {
		name  string
		value int
		valid bool
	}{
		{"below minimum", 0, false},
		{"minimum", 1, true},
		{"maximum", 50, true},
		{"above maximum", 51, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.RemindMaxConcurrent = tt.value
			err := config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config, got error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestWorkerConfig_Validate_NonPositiveDurations(t *testing.T) {
	for _, field := range []string{"lead_time", "window", "scan_timeout"} {
		t.Run(field, func(t *testing.T) {
			config := DefaultConfig()
			switch field {
			case "lead_time":
				config.ReminderLeadTime = 0
			case "window":
				config.ReminderWindow = -time.Minute
			case "scan_timeout":
				config.ScanTimeout = 0
			}
			if err := config.Validate(); err == nil {
				t.Error("Expected validation error for non-positive duration")
			}
		})
	}
}

func TestWorkerConfig_Validate_HealthPortRange(t *testing.T) {
	config := DefaultConfig()
	config.HealthPort = 80

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for privileged port")
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	// No environment variables set: every field falls back to defaults.
	cfg, err := LoadConfigFromEnv(slog.Default(), testMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv should never fail: %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("Expected default config, got %+v", *cfg)
	}
}

func TestLoadConfigFromEnv_ValidOverrides(t *testing.T) {
	t.Setenv("CRON_SCHEDULE", "0 * * * *")
	t.Setenv("WORKER_TIMEZONE", "Asia/Jerusalem")
	t.Setenv("REMIND_MAX_CONCURRENT", "10")
	t.Setenv("REMINDER_LEAD_TIME", "48h")
	t.Setenv("REMINDER_WINDOW", "1h")
	t.Setenv("SCAN_TIMEOUT", "10m")
	t.Setenv("WORKER_HEALTH_PORT", "9191")

	cfg, err := LoadConfigFromEnv(slog.Default(), testMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv should never fail: %v", err)
	}

	if cfg.CronSchedule != "0 * * * *" {
		t.Errorf("CronSchedule = %q", cfg.CronSchedule)
	}
	if cfg.Timezone != "Asia/Jerusalem" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.RemindMaxConcurrent != 10 {
		t.Errorf("RemindMaxConcurrent = %d", cfg.RemindMaxConcurrent)
	}
	if cfg.ReminderLeadTime != 48*time.Hour {
		t.Errorf("ReminderLeadTime = %v", cfg.ReminderLeadTime)
	}
	if cfg.ReminderWindow != time.Hour {
		t.Errorf("ReminderWindow = %v", cfg.ReminderWindow)
	}
	if cfg.ScanTimeout != 10*time.Minute {
		t.Errorf("ScanTimeout = %v", cfg.ScanTimeout)
	}
	if cfg.HealthPort != 9191 {
		t.Errorf("HealthPort = %d", cfg.HealthPort)
	}
}

func TestLoadConfigFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CRON_SCHEDULE", "every day at noon")
	t.Setenv("REMIND_MAX_CONCURRENT", "9000")
	t.Setenv("REMINDER_LEAD_TIME", "5s")

	cfg, err := LoadConfigFromEnv(slog.Default(), testMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv should never fail: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.CronSchedule != defaults.CronSchedule {
		t.Errorf("invalid cron schedule should fall back, got %q", cfg.CronSchedule)
	}
	if cfg.RemindMaxConcurrent != defaults.RemindMaxConcurrent {
		t.Errorf("out-of-range concurrency should fall back, got %d", cfg.RemindMaxConcurrent)
	}
	if cfg.ReminderLeadTime != defaults.ReminderLeadTime {
		t.Errorf("too-short lead time should fall back, got %v", cfg.ReminderLeadTime)
	}
}
