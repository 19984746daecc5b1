// Package notifier delivers appointment reminders over outbound webhooks.
// It defines the Notifier interface so different delivery mechanisms
// (Slack, generic webhooks, no-op when reminders are disabled) can be
// swapped through dependency injection.
//
// Delivery resilience (retry with backoff, the shared reminder-webhook
// circuit breaker) is handled by the retry executor each implementation
// is constructed with; the implementations only classify errors and
// apply local rate limiting.
package notifier

import (
	"context"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
)

// Notifier sends appointment reminders.
type Notifier interface {
	// Notify delivers a reminder for an upcoming appointment. It blocks
	// until delivery succeeds, the retry budget is exhausted, or the
	// webhook circuit breaker rejects the call.
	Notify(ctx context.Context, reminder *entity.Reminder) error
}
