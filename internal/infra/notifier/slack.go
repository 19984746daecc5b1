package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/retry"
)

// SlackConfig contains configuration for Slack webhook reminders.
type SlackConfig struct {
	// Enabled indicates whether Slack reminders are enabled
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls
	Timeout time.Duration
}

// SlackNotifier sends appointment reminders to Slack via Incoming Webhook.
// Delivery goes through the retry executor under the reminder-webhook
// circuit breaker.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	executor    *retry.Executor
}

// NewSlackNotifier creates a SlackNotifier. The rate limiter is fixed at
// 1 request/second with burst of 1 to match the Slack webhook limit of
// 1 message per second.
func NewSlackNotifier(config SlackConfig, executor *retry.Executor) *SlackNotifier {
	return &SlackNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(1.0, 1),
		executor:    executor,
	}
}

// SlackWebhookPayload represents the JSON payload sent to Slack webhook using Block Kit.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`   // Fallback text (required)
	Blocks []SlackBlock `json:"blocks"` // Rich formatting blocks
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`               // "section", "context", "divider"
	Text     *SlackTextObject  `json:"text,omitempty"`     // Text content (for section)
	Elements []SlackTextObject `json:"elements,omitempty"` // Elements (for context)
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"` // Actual text content
}

const (
	// Slack Block Kit limits
	maxSectionTextLength = 3000
	maxFallbackLength    = 150

	// Truncation suffix
	slackTruncationSuffix = "..."
)

// buildBlockKitPayload creates a Slack webhook payload from a reminder.
//
// The payload includes:
//   - Text: Fallback text for notifications (client name + start time)
//   - Section block: client name in bold plus the appointment time range
//   - Context block: location type and appointment notes
func (s *SlackNotifier) buildBlockKitPayload(reminder *entity.Reminder) SlackWebhookPayload {
	start := reminder.ScheduledStart.Format("Mon Jan 2 15:04")
	end := reminder.ScheduledEnd.Format("15:04")

	fallbackText := fmt.Sprintf("Upcoming appointment: %s at %s", reminder.ClientName, start)
	if len(fallbackText) > maxFallbackLength {
		fallbackText = truncateText(fallbackText, maxFallbackLength, slackTruncationSuffix)
	}

	sectionText := fmt.Sprintf("*%s*\n%s - %s", reminder.ClientName, start, end)
	if reminder.Notes != "" {
		sectionText = fmt.Sprintf("%s\n\n%s", sectionText, reminder.Notes)
	}
	sectionText = truncateText(sectionText, maxSectionTextLength, slackTruncationSuffix)

	contextText := fmt.Sprintf("Location: %s", reminder.Location)

	return SlackWebhookPayload{
		Text: fallbackText,
		Blocks: []SlackBlock{
			{
				Type: "section",
				Text: &SlackTextObject{Type: "mrkdwn", Text: sectionText},
			},
			{
				Type: "context",
				Elements: []SlackTextObject{
					{Type: "mrkdwn", Text: contextText},
				},
			},
		},
	}
}

// sendWebhookRequest sends a single Slack webhook request.
//
// Error types:
//   - 429: RateLimitError (retryable, carries retry_after)
//   - 4xx (non-429): ClientError (non-retryable)
//   - 5xx: ServerError (retryable)
//   - Network error: retryable
func (s *SlackNotifier) sendWebhookRequest(ctx context.Context, reminder *entity.Reminder) error {
	payload := s.buildBlockKitPayload(reminder)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			Message:    "Slack rate limit exceeded",
			RetryAfter: retryAfterFromHeader(resp),
		}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Slack API client error: %s", string(body)),
		}
	}

	if resp.StatusCode >= 500 {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Slack API server error: %s", string(body)),
		}
	}

	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// retryAfterFromHeader extracts the Retry-After header as a duration,
// defaulting to 1 second when absent or malformed.
func retryAfterFromHeader(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second
}

// Notify sends a Slack reminder for an upcoming appointment.
// This method implements the Notifier interface.
//
// It performs the following steps:
//  1. Generate unique request_id for tracing
//  2. Apply rate limiting to prevent API abuse (1 req/s, burst of 1)
//  3. Run the webhook request through the retry executor under the
//     reminder-webhook circuit breaker
func (s *SlackNotifier) Notify(ctx context.Context, reminder *entity.Reminder) error {
	if err := reminder.Validate(); err != nil {
		return fmt.Errorf("invalid reminder: %w", err)
	}

	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("sending Slack reminder",
		slog.String("request_id", requestID),
		slog.String("appointment_id", reminder.AppointmentID.String()),
		slog.Time("scheduled_start", reminder.ScheduledStart))

	if err := s.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	policy := retry.NotifyPolicy()
	policy.Retryable = WebhookClassifier

	_, err := s.executor.Run(ctx, policy, func(ctx context.Context) (interface{}, error) {
		return nil, s.sendWebhookRequest(ctx, reminder)
	})
	if err != nil {
		slog.Error("Slack reminder delivery failed",
			slog.String("request_id", requestID),
			slog.String("appointment_id", reminder.AppointmentID.String()),
			slog.Any("error", err))
		return fmt.Errorf("slack reminder delivery: %w", err)
	}

	slog.Info("Slack reminder delivered",
		slog.String("request_id", requestID),
		slog.String("appointment_id", reminder.AppointmentID.String()))
	return nil
}
