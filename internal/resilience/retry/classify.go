package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Classifier reports whether an error is worth retrying. Classification is
// always policy-supplied, never hardcoded in the executor, so that different
// downstream call types (embedding vs. chat) can carry different
// transient-failure profiles.
type Classifier func(error) bool

// DefaultClassifier classifies common transient failures as retryable:
// network timeouts, connection-level syscall errors, and HTTP 5xx/429/408
// responses. Context cancellation and deadline expiry are never retryable.
func DefaultClassifier(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}

	return false
}
