package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	aiUC "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

// AIHealthHandler provides health check endpoints for the AI integration.
type AIHealthHandler struct {
	svc *aiUC.Service
}

// NewAIHealthHandler creates a new AI health check handler.
func NewAIHealthHandler(svc *aiUC.Service) *AIHealthHandler {
	return &AIHealthHandler{
		svc: svc,
	}
}

// AIHealthResponse represents the response structure for AI health endpoints.
type AIHealthResponse struct {
	Status   string            `json:"status"`
	Message  string            `json:"message,omitempty"`
	Latency  string            `json:"latency,omitempty"`
	Breakers map[string]string `json:"breakers,omitempty"`
	Ready    *bool             `json:"ready,omitempty"`
}

// anyBreakerOpen reports whether any circuit breaker in the map is open.
func anyBreakerOpen(states map[string]string) bool {
	for _, state := range states {
		if state == "open" {
			return true
		}
	}
	return false
}

// Health returns basic health status of the AI service.
// GET /health/ai
// Returns 200 if healthy, 503 if unavailable.
func (h *AIHealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, err := h.svc.Health(ctx)

	w.Header().Set("Content-Type", "application/json")

	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		response := AIHealthResponse{
			Status:  "unhealthy",
			Message: err.Error(),
		}
		if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
			slog.Error("failed to encode AI health response", slog.Any("error", encErr))
		}
		return
	}

	if status == nil || !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		response := AIHealthResponse{
			Status: "unhealthy",
		}
		if status != nil {
			response.Message = status.Message
			response.Breakers = status.BreakerStates
		}
		if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
			slog.Error("failed to encode AI health response", slog.Any("error", encErr))
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	response := AIHealthResponse{
		Status:   "healthy",
		Latency:  status.Latency.String(),
		Breakers: status.BreakerStates,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode AI health response", slog.Any("error", err))
	}
}

// Ready returns readiness for traffic (checks circuit breaker state).
// GET /ready/ai
// Returns 200 if ready to serve traffic, 503 if any circuit breaker is open.
// Note: Ready only checks breaker state, not overall health.
// A service can be unhealthy but still ready if the circuits are closed.
func (h *AIHealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, err := h.svc.Health(ctx)

	w.Header().Set("Content-Type", "application/json")

	if status == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		ready := false
		msg := "health check failed"
		if err != nil {
			msg = err.Error()
		}
		response := AIHealthResponse{
			Ready:   &ready,
			Message: msg,
		}
		if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
			slog.Error("failed to encode AI ready response", slog.Any("error", encErr))
		}
		return
	}

	if anyBreakerOpen(status.BreakerStates) {
		w.WriteHeader(http.StatusServiceUnavailable)
		ready := false
		response := AIHealthResponse{
			Ready:    &ready,
			Message:  "circuit breaker open",
			Breakers: status.BreakerStates,
		}
		if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
			slog.Error("failed to encode AI ready response", slog.Any("error", encErr))
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	ready := true
	response := AIHealthResponse{
		Ready: &ready,
	}
	if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
		slog.Error("failed to encode AI ready response", slog.Any("error", encErr))
	}
}
