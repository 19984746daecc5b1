package notifier

import (
	"context"

	"github.com/yussieik/pazpaz-sub002/internal/domain/entity"
)

// NoOpNotifier is a no-operation implementation of the Notifier interface.
// It is used when reminders are disabled to avoid null checks in the code.
// This follows the Null Object pattern.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Notify does nothing and returns nil immediately. This allows the
// reminder feature to be disabled without changing the code flow.
func (n *NoOpNotifier) Notify(ctx context.Context, reminder *entity.Reminder) error {
	return nil
}
