package pagination

import (
	"log/slog"
	"time"
)

// LogRequest traces an incoming paginated list request.
func LogRequest(logger *slog.Logger, requestID, userID string, params Params) {
	logger.Info("Paginated request",
		slog.String("request_id", requestID),
		slog.String("user_id", userID),
		slog.Int("page", params.Page),
		slog.Int("limit", params.Limit))
}

// LogResponse records the outcome and latency of a paginated request.
func LogResponse(logger *slog.Logger, requestID string, params Params, returnedCount int, duration time.Duration, statusCode int) {
	logger.Info("Paginated response",
		slog.String("request_id", requestID),
		slog.Int("page", params.Page),
		slog.Int("limit", params.Limit),
		slog.Int("returned_count", returnedCount),
		slog.Int64("duration_ms", duration.Milliseconds()),
		slog.Int("status", statusCode))
}

// LogError records a pagination failure with its classified type.
func LogError(logger *slog.Logger, requestID string, params Params, err error, errorType string) {
	logger.Error("Pagination error",
		slog.String("request_id", requestID),
		slog.Int("page", params.Page),
		slog.Int("limit", params.Limit),
		slog.String("error", err.Error()),
		slog.String("error_type", errorType))
}
