package ai

import (
	"errors"
	"net/http"

	"github.com/yussieik/pazpaz-sub002/internal/resilience/retry"
	aiUC "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

// errorStatus maps use case errors to HTTP status codes. Breaker rejections
// and exhausted retries surface as 503 so clients know to back off.
func errorStatus(err error) int {
	var (
		circuitErr   *retry.CircuitOpenError
		exhaustedErr *retry.AttemptsExhaustedError
	)
	switch {
	case errors.Is(err, aiUC.ErrAIDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, aiUC.ErrInvalidQuery),
		errors.Is(err, aiUC.ErrInvalidQuestion):
		return http.StatusBadRequest
	case errors.Is(err, aiUC.ErrNoSessions):
		return http.StatusNotFound
	case errors.As(err, &circuitErr),
		errors.As(err, &exhaustedErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
