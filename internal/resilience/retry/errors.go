package retry

import (
	"fmt"
	"net/http"
)

// CircuitOpenError is returned when the named circuit breaker rejected the
// call before the operation was invoked. It is always terminal for the Run
// call that produced it; the executor never retries it.
type CircuitOpenError struct {
	// Breaker is the name of the breaker that rejected the call.
	Breaker string
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open", e.Breaker)
}

// AttemptsExhaustedError is returned when every allowed attempt failed with
// a retryable error. It wraps the error from the final attempt.
type AttemptsExhaustedError struct {
	// Operation is the logical operation name from the policy.
	Operation string

	// Attempts is the total number of attempts made.
	Attempts int

	// Err is the error returned by the final attempt.
	Err error
}

// Error implements the error interface.
func (e *AttemptsExhaustedError) Error() string {
	return fmt.Sprintf("%s: attempts exhausted after %d tries: %v", e.Operation, e.Attempts, e.Err)
}

// Unwrap returns the final attempt's error so that errors.Is and errors.As
// see through the exhaustion wrapper.
func (e *AttemptsExhaustedError) Unwrap() error {
	return e.Err
}

// HTTPError represents a downstream HTTP failure with its status code, used
// by classifiers to separate transient 5xx/429 responses from fatal 4xx.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the status code indicates a transient condition.
func (e *HTTPError) Temporary() bool {
	if e.StatusCode >= http.StatusInternalServerError && e.StatusCode < 600 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout
}
