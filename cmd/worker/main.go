package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"
	pgRepo "github.com/yussieik/pazpaz-sub002/internal/infra/adapter/persistence/postgres"
	"github.com/yussieik/pazpaz-sub002/internal/infra/db"
	"github.com/yussieik/pazpaz-sub002/internal/infra/notifier"
	workerPkg "github.com/yussieik/pazpaz-sub002/internal/infra/worker"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/circuitbreaker"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/retry"
	"github.com/yussieik/pazpaz-sub002/internal/usecase/reminder"
)

func waitForMigrations(logger *slog.Logger, db *sql.DB) {
	const probe = "SELECT 1 FROM appointments LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := db.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("remind_max_concurrent", workerConfig.RemindMaxConcurrent),
		slog.Duration("reminder_lead_time", workerConfig.ReminderLeadTime),
		slog.Duration("reminder_window", workerConfig.ReminderWindow),
		slog.Int("health_port", workerConfig.HealthPort))

	// One breaker registry and executor for the whole process; every
	// webhook delivery shares the reminder-webhook breaker.
	registry := circuitbreaker.NewRegistry()
	retryMetrics := retry.NewPrometheusMetrics()
	executor := retry.NewExecutor(registry, retryMetrics)

	n := buildNotifier(logger, executor)

	// Start metrics HTTP server
	startMetricsServer(ctx, logger, executor, retryMetrics)

	// Start health check server
	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	// Scan queries go through the database circuit breaker; a scan during a
	// database outage fails fast and the next cron tick retries
	dbGuard := circuitbreaker.NewDBGuard(database, circuitbreaker.DefaultDBConfig())

	svc := reminder.NewService(
		pgRepo.NewAppointmentRepo(dbGuard),
		pgRepo.NewClientRepo(dbGuard),
		n,
		reminder.Config{
			LeadTime:      workerConfig.ReminderLeadTime,
			Window:        workerConfig.ReminderWindow,
			MaxConcurrent: workerConfig.RemindMaxConcurrent,
		},
	)

	startCronWorker(logger, svc, workerConfig, workerMetrics, healthServer)
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and waits for migrations to complete.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	waitForMigrations(logger, database)
	return database
}

// buildNotifier assembles the reminder notifier from environment
// configuration. Slack and the generic webhook can both be enabled; when
// neither is, reminders are logged and dropped by the no-op notifier.
func buildNotifier(logger *slog.Logger, executor *retry.Executor) reminder.Notifier {
	var notifiers []notifier.Notifier

	slackConfig := loadSlackConfig(logger)
	if slackConfig.Enabled {
		notifiers = append(notifiers, notifier.NewSlackNotifier(slackConfig, executor))
		logger.Info("Slack reminders enabled")
	}

	webhookConfig := loadWebhookConfig(logger)
	if webhookConfig.Enabled {
		notifiers = append(notifiers, notifier.NewWebhookNotifier(webhookConfig, executor))
		logger.Info("webhook reminders enabled")
	}

	switch len(notifiers) {
	case 0:
		logger.Warn("no reminder notifier configured, reminders will be dropped")
		return notifier.NewNoOpNotifier()
	case 1:
		return notifiers[0]
	default:
		return multiNotifier(notifiers)
	}
}

// multiNotifier fans one reminder out to every configured notifier and
// returns the first delivery error.
type multiNotifier []notifier.Notifier

func (m multiNotifier) Notify(ctx context.Context, r *entity.Reminder) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(ctx, r); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// loadSlackConfig loads Slack configuration from environment variables.
//
// Environment variables:
//   - SLACK_ENABLED: Boolean flag to enable Slack reminders (default: false)
//   - SLACK_WEBHOOK_URL: Slack webhook URL (required if enabled)
func loadSlackConfig(logger *slog.Logger) notifier.SlackConfig {
	enabled := os.Getenv("SLACK_ENABLED") == "true"
	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")

	if !enabled {
		return notifier.SlackConfig{Enabled: false}
	}

	if webhookURL == "" {
		logger.Warn("Slack webhook URL is empty, disabling reminders")
		return notifier.SlackConfig{Enabled: false}
	}

	u, err := url.Parse(webhookURL)
	if err != nil {
		logger.Warn("Invalid Slack webhook URL format, disabling reminders", slog.Any("error", err))
		return notifier.SlackConfig{Enabled: false}
	}
	if u.Scheme != "https" {
		logger.Warn("Slack webhook URL must use HTTPS, disabling reminders")
		return notifier.SlackConfig{Enabled: false}
	}
	if u.Host != "hooks.slack.com" {
		logger.Warn("Invalid Slack webhook host, disabling reminders", slog.String("host", u.Host))
		return notifier.SlackConfig{Enabled: false}
	}
	if !strings.HasPrefix(u.Path, "/services/") {
		logger.Warn("Invalid Slack webhook path, disabling reminders", slog.String("path", u.Path))
		return notifier.SlackConfig{Enabled: false}
	}

	return notifier.SlackConfig{
		Enabled:    true,
		WebhookURL: webhookURL,
		Timeout:    30 * time.Second,
	}
}

// loadWebhookConfig loads generic webhook configuration from environment
// variables.
//
// Environment variables:
//   - REMINDER_WEBHOOK_ENABLED: Boolean flag (default: false)
//   - REMINDER_WEBHOOK_URL: Endpoint receiving reminder payloads
//   - REMINDER_WEBHOOK_TOKEN: Optional bearer token
func loadWebhookConfig(logger *slog.Logger) notifier.WebhookConfig {
	enabled := os.Getenv("REMINDER_WEBHOOK_ENABLED") == "true"
	webhookURL := os.Getenv("REMINDER_WEBHOOK_URL")

	if !enabled {
		return notifier.WebhookConfig{Enabled: false}
	}

	if webhookURL == "" {
		logger.Warn("Reminder webhook URL is empty, disabling reminders")
		return notifier.WebhookConfig{Enabled: false}
	}

	u, err := url.Parse(webhookURL)
	if err != nil || u.Scheme != "https" {
		logger.Warn("Reminder webhook URL must be a valid HTTPS URL, disabling reminders")
		return notifier.WebhookConfig{Enabled: false}
	}

	return notifier.WebhookConfig{
		Enabled:   true,
		URL:       webhookURL,
		AuthToken: os.Getenv("REMINDER_WEBHOOK_TOKEN"),
		Timeout:   30 * time.Second,
	}
}

// startCronWorker starts the cron scheduler and runs the reminder scan
// periodically.
func startCronWorker(logger *slog.Logger, svc *reminder.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runReminderJob(logger, svc, cfg, metrics)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	// Mark as ready after cron is set up
	healthServer.SetReady(true)
	logger.Info("worker marked as ready")

	logger.Info("worker started", slog.String("schedule", cfg.CronSchedule), slog.String("timezone", cfg.Timezone))
	select {}
}

// runReminderJob executes a single reminder scan with timeout and error
// handling.
func runReminderJob(logger *slog.Logger, svc *reminder.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	startTime := time.Now()
	logger.Info("reminder scan started")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ScanTimeout)
	defer cancel()

	result, err := svc.Run(ctx)
	if err != nil {
		logger.Error("reminder scan failed", slog.Any("error", respond.SanitizeError(err)))
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(startTime).Seconds())
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(time.Since(startTime).Seconds())
	metrics.RecordRemindersSent(result.Sent)
	metrics.RecordLastSuccess()

	logger.Info("reminder scan completed",
		slog.Int("scanned", result.Scanned),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Duration("duration", time.Since(startTime)),
	)
}
