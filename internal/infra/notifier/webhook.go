package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/retry"
)

// WebhookConfig contains configuration for generic webhook reminders.
type WebhookConfig struct {
	// Enabled indicates whether webhook reminders are enabled
	Enabled bool

	// URL is the endpoint that receives reminder payloads
	URL string

	// AuthToken, when set, is sent as a bearer token
	AuthToken string

	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// WebhookNotifier posts appointment reminders as JSON to a configured
// endpoint. It is the integration point for clinics that run their own
// reminder delivery (SMS gateways, email services, practice portals).
type WebhookNotifier struct {
	config      WebhookConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	executor    *retry.Executor
}

// NewWebhookNotifier creates a WebhookNotifier. The rate limiter allows
// 5 requests/second with burst of 10; receiving endpoints are assumed to
// be less constrained than chat webhooks.
func NewWebhookNotifier(config WebhookConfig, executor *retry.Executor) *WebhookNotifier {
	return &WebhookNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(5.0, 10),
		executor:    executor,
	}
}

// reminderPayload is the JSON body posted to the webhook endpoint.
type reminderPayload struct {
	AppointmentID  string `json:"appointment_id"`
	WorkspaceID    string `json:"workspace_id"`
	ClientName     string `json:"client_name"`
	ScheduledStart string `json:"scheduled_start"`
	ScheduledEnd   string `json:"scheduled_end"`
	Location       string `json:"location"`
	Notes          string `json:"notes,omitempty"`
}

func (w *WebhookNotifier) sendRequest(ctx context.Context, reminder *entity.Reminder) error {
	payload := reminderPayload{
		AppointmentID:  reminder.AppointmentID.String(),
		WorkspaceID:    reminder.WorkspaceID.String(),
		ClientName:     reminder.ClientName,
		ScheduledStart: reminder.ScheduledStart.Format(time.RFC3339),
		ScheduledEnd:   reminder.ScheduledEnd.Format(time.RFC3339),
		Location:       string(reminder.Location),
		Notes:          reminder.Notes,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal reminder payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+w.config.AuthToken)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    "webhook rate limit exceeded",
			RetryAfter: retryAfterFromHeader(resp),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("webhook client error: %s", string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("webhook server error: %s", string(body)),
		}
	default:
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}
}

// Notify posts a reminder to the configured endpoint through the retry
// executor under the reminder-webhook circuit breaker.
func (w *WebhookNotifier) Notify(ctx context.Context, reminder *entity.Reminder) error {
	if err := reminder.Validate(); err != nil {
		return fmt.Errorf("invalid reminder: %w", err)
	}

	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	if err := w.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	policy := retry.NotifyPolicy()
	policy.Retryable = WebhookClassifier

	_, err := w.executor.Run(ctx, policy, func(ctx context.Context) (interface{}, error) {
		return nil, w.sendRequest(ctx, reminder)
	})
	if err != nil {
		slog.Error("webhook reminder delivery failed",
			slog.String("request_id", requestID),
			slog.String("appointment_id", reminder.AppointmentID.String()),
			slog.Any("error", err))
		return fmt.Errorf("webhook reminder delivery: %w", err)
	}

	slog.Debug("webhook reminder delivered",
		slog.String("request_id", requestID),
		slog.String("appointment_id", reminder.AppointmentID.String()))
	return nil
}
