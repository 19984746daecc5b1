// Package http provides HTTP handlers and middleware for the API server.
// It includes health check endpoints, metrics collection, request timeout
// and validation middleware, and the response plumbing shared by the
// resource handler packages (clients, appointments, sessions, ai).
package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/yussieik/pazpaz-sub002/pkg/ratelimit"
)

// HealthResponse is the JSON body served by the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is one named check inside a HealthResponse. Status is
// "healthy", "degraded", or "unhealthy".
type CheckStatus struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RateLimiterHealthInfo describes one rate limiter instance.
type RateLimiterHealthInfo struct {
	ActiveKeys       int    `json:"active_keys"`
	MemoryBytes      int64  `json:"memory_bytes"`
	CircuitBreaker   string `json:"circuit_breaker"`
	DegradationLevel string `json:"degradation_level"`
}

// CSPHealthInfo describes the Content Security Policy configuration.
type CSPHealthInfo struct {
	Enabled    bool `json:"enabled"`
	ReportOnly bool `json:"report_only"`
}

// HealthHandler serves the detailed health endpoint. Database connectivity
// decides overall health; rate limiter and CSP sections are informational
// and only appear when those subsystems are wired in.
type HealthHandler struct {
	DB      *sql.DB
	Version string

	IPRateLimiterStore     ratelimit.RateLimitStore
	UserRateLimiterStore   ratelimit.RateLimitStore
	IPCircuitBreaker       *ratelimit.CircuitBreaker
	UserCircuitBreaker     *ratelimit.CircuitBreaker
	IPDegradationManager   DegradationManager
	UserDegradationManager DegradationManager
	RateLimiterEnabled     bool

	CSPEnabled    bool
	CSPReportOnly bool
}

// DegradationManager exposes just the degradation level, so the health
// check does not depend on the full manager implementation.
type DegradationManager interface {
	GetLevel() DegradationLevel
}

// DegradationLevel is a printable degradation state.
type DegradationLevel interface {
	String() string
}

// ServeHTTP runs the checks and answers 200 when healthy or 503 when the
// database check fails. Degraded checks still count as operational.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus)
	allHealthy := true

	if h.DB != nil {
		dbCheck := h.checkDatabase(ctx)
		checks["database"] = dbCheck
		if dbCheck.Status == "unhealthy" {
			allHealthy = false
		}
	} else {
		checks["database"] = CheckStatus{
			Status:  "unhealthy",
			Message: "not configured",
		}
		allHealthy = false
	}

	if h.RateLimiterEnabled {
		checks["rate_limiter"] = h.checkRateLimiter(ctx)
	}

	if h.CSPEnabled {
		checks["csp"] = h.checkCSP()
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("health: failed to encode response: %v", err)
	}
}

// checkDatabase pings the database and reports connection pool statistics.
func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	}

	stats := h.DB.Stats()
	details := map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_idle_time_closed": stats.MaxIdleTimeClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}

	// MaxOpenConnections of 0 means an unbounded pool; skip the
	// utilization math rather than divide by zero.
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool max connections not configured",
			Details: details,
		}
	}

	utilizationPercent := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilizationPercent

	if utilizationPercent >= 80.0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}

	return CheckStatus{
		Status:  "healthy",
		Details: details,
	}
}

// limiterHealthInfo collects key count, memory use, breaker state, and
// degradation level for a single limiter.
func limiterHealthInfo(ctx context.Context, store ratelimit.RateLimitStore, breaker *ratelimit.CircuitBreaker, dm DegradationManager) RateLimiterHealthInfo {
	info := RateLimiterHealthInfo{
		CircuitBreaker:   "not_configured",
		DegradationLevel: "not_configured",
	}

	if keyCount, err := store.KeyCount(ctx); err == nil {
		info.ActiveKeys = keyCount
	}
	if memUsage, err := store.MemoryUsage(ctx); err == nil {
		info.MemoryBytes = memUsage
	}
	if breaker != nil {
		info.CircuitBreaker = breaker.State().String()
	}
	if dm != nil {
		info.DegradationLevel = dm.GetLevel().String()
	}

	return info
}

// checkRateLimiter reports both limiters. The section is always "healthy":
// an open circuit means fail-open, and degradation is the limiter coping
// with overload, so neither is a failure of the service.
func (h *HealthHandler) checkRateLimiter(ctx context.Context) CheckStatus {
	details := make(map[string]interface{})

	if h.IPRateLimiterStore != nil {
		details["ip"] = limiterHealthInfo(ctx, h.IPRateLimiterStore, h.IPCircuitBreaker, h.IPDegradationManager)
	}
	if h.UserRateLimiterStore != nil {
		details["user"] = limiterHealthInfo(ctx, h.UserRateLimiterStore, h.UserCircuitBreaker, h.UserDegradationManager)
	}

	return CheckStatus{
		Status:  "healthy",
		Details: details,
	}
}

// checkCSP reports the CSP configuration.
func (h *HealthHandler) checkCSP() CheckStatus {
	return CheckStatus{
		Status: "healthy",
		Details: map[string]interface{}{
			"config": CSPHealthInfo{
				Enabled:    h.CSPEnabled,
				ReportOnly: h.CSPReportOnly,
			},
		},
	}
}

// ReadyHandler answers Kubernetes readiness probes. Ready means the
// database accepts a ping within two seconds.
type ReadyHandler struct {
	DB *sql.DB
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}

	if err := h.DB.PingContext(ctx); err != nil {
		http.Error(w, "database not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		log.Printf("ready: failed to write response: %v", err)
	}
}

// LiveHandler answers Kubernetes liveness probes with a flat 200.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		log.Printf("alive: failed to write response: %v", err)
	}
}
