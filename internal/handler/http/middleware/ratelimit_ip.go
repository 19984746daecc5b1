package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yussieik/pazpaz-sub002/pkg/ratelimit"
)

// IPRateLimiterConfig holds configuration for the IP-based rate limiter.
type IPRateLimiterConfig struct {
	// Limit is the maximum number of requests per IP within the window.
	// Defaults to 100.
	Limit int

	// Window is the rate limiting period. Defaults to one minute.
	Window time.Duration

	// Enabled toggles enforcement. Defaults to true.
	Enabled bool
}

// DefaultIPRateLimiterConfig returns the default IP rate limiting configuration.
func DefaultIPRateLimiterConfig() IPRateLimiterConfig {
	return IPRateLimiterConfig{
		Limit:   100,
		Window:  1 * time.Minute,
		Enabled: true,
	}
}

// IPRateLimiter is the HTTP adapter over pkg/ratelimit keyed by client IP.
// It extracts the caller's address through an IPExtractor, asks the
// configured algorithm for a decision, sets the X-RateLimit-* headers, and
// answers 429 when the budget is spent. A circuit breaker guards the store
// so limiter backend failures fail open rather than taking requests down.
type IPRateLimiter struct {
	config         IPRateLimiterConfig
	ipExtractor    IPExtractor
	store          ratelimit.RateLimitStore
	algorithm      ratelimit.RateLimitAlgorithm
	metrics        ratelimit.RateLimitMetrics
	circuitBreaker *ratelimit.CircuitBreaker
	degradation    *DegradationManager
}

// NewIPRateLimiter creates an IP-based rate limiter middleware. Zero or
// negative Limit and Window fall back to the defaults.
func NewIPRateLimiter(
	config IPRateLimiterConfig,
	ipExtractor IPExtractor,
	store ratelimit.RateLimitStore,
	algorithm ratelimit.RateLimitAlgorithm,
	metrics ratelimit.RateLimitMetrics,
	circuitBreaker *ratelimit.CircuitBreaker,
) *IPRateLimiter {
	if config.Limit <= 0 {
		config.Limit = 100
	}
	if config.Window <= 0 {
		config.Window = 1 * time.Minute
	}

	return &IPRateLimiter{
		config:         config,
		ipExtractor:    ipExtractor,
		store:          store,
		algorithm:      algorithm,
		metrics:        metrics,
		circuitBreaker: circuitBreaker,
	}
}

// SetDegradationManager attaches a degradation manager. When set, the
// middleware reports circuit breaker state to the manager and enforces
// the manager's adjusted limit instead of the configured one, so a
// failing limiter backend loosens throttling instead of hard-failing.
func (rl *IPRateLimiter) SetDegradationManager(dm *DegradationManager) {
	rl.degradation = dm
}

// effectiveLimit returns the limit to enforce for this request, widened
// by the degradation manager when one is attached. A zero limit means
// rate limiting is currently disabled by degradation.
func (rl *IPRateLimiter) effectiveLimit() int {
	if rl.degradation == nil {
		return rl.config.Limit
	}
	return rl.degradation.AdjustLimits(rl.config.Limit)
}

// Middleware enforces the per-IP limit. Every checked response carries
// X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, and
// X-RateLimit-Type headers; denied requests additionally get Retry-After
// and a 429 JSON body. Extraction failures and an open circuit both let
// the request through.
func (rl *IPRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			ip, err := rl.ipExtractor.ExtractIP(r)
			if err != nil {
				slog.Error("IP rate limiter: failed to extract IP, allowing request",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			if rl.circuitBreaker != nil && rl.circuitBreaker.IsOpen() {
				if rl.degradation != nil {
					rl.degradation.OnCircuitOpen()
				}
				slog.Warn("IP rate limiter: circuit breaker open, allowing request",
					slog.String("ip", ip),
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}
			if rl.degradation != nil {
				rl.degradation.OnCircuitClose()
			}

			// Degradation may widen the limit or disable limiting entirely.
			limit := rl.effectiveLimit()
			if limit <= 0 && rl.degradation != nil {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := rl.checkRateLimit(context.Background(), ip, limit)

			if rl.metrics != nil {
				rl.metrics.RecordCheckDuration("ip", time.Since(start))
			}

			if err != nil {
				rl.handleRateLimitError(w, r, ip, err)
				return
			}

			slog.Debug("rate limit check completed",
				slog.String("limiter_type", "ip"),
				slog.String("key", ip),
				slog.Int("current", decision.Limit-decision.Remaining),
				slog.Int("limit", decision.Limit),
				slog.Duration("window", rl.config.Window),
				slog.Bool("allowed", decision.Allowed),
				slog.String("path", r.URL.Path),
			)

			rl.setRateLimitHeaders(w, decision)

			if decision.IsDenied() {
				rl.writeRateLimitError(w, r, decision)
				return
			}

			if rl.metrics != nil {
				rl.metrics.RecordAllowed("ip", r.URL.Path)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkRateLimit asks the algorithm for a decision, routed through the
// circuit breaker when one is configured so repeated store failures
// eventually open the circuit.
func (rl *IPRateLimiter) checkRateLimit(ctx context.Context, ip string, limit int) (*ratelimit.RateLimitDecision, error) {
	var decision *ratelimit.RateLimitDecision
	var err error

	checkErr := func() error {
		decision, err = rl.algorithm.IsAllowed(
			ctx,
			ip,
			rl.store,
			limit,
			rl.config.Window,
		)
		return err
	}

	if rl.circuitBreaker != nil {
		if cbErr := rl.circuitBreaker.Execute(checkErr); cbErr != nil {
			return nil, cbErr
		}
	} else if err := checkErr(); err != nil {
		return nil, err
	}

	if decision != nil {
		decision.LimiterType = "ip"
	}

	return decision, nil
}

func (rl *IPRateLimiter) setRateLimitHeaders(w http.ResponseWriter, decision *ratelimit.RateLimitDecision) {
	if decision == nil {
		return
	}

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAtUnix(), 10))
	w.Header().Set("X-RateLimit-Type", "ip")
}

// writeRateLimitError answers 429 with a Retry-After header and a small
// JSON body naming the wait in seconds.
func (rl *IPRateLimiter) writeRateLimitError(w http.ResponseWriter, r *http.Request, decision *ratelimit.RateLimitDecision) {
	retryAfter := decision.RetryAfterSeconds()
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	response := map[string]interface{}{
		"error":       "rate_limit_exceeded",
		"message":     "Too many requests from this IP address",
		"retry_after": retryAfter,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("IP rate limiter: failed to encode JSON response",
			slog.String("error", err.Error()),
		)
	}

	if rl.metrics != nil {
		rl.metrics.RecordDenied("ip", r.URL.Path)
	}

	slog.Warn("rate limit exceeded",
		slog.String("limiter_type", "ip"),
		slog.String("key", decision.Key),
		slog.Int("current", decision.Limit-decision.Remaining),
		slog.Int("limit", decision.Limit),
		slog.Int64("retry_after", retryAfter),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
	)
}

// handleRateLimitError fails open on limiter errors. The error is logged,
// the breaker has already seen the failure, and the client gets a 200.
func (rl *IPRateLimiter) handleRateLimitError(w http.ResponseWriter, r *http.Request, ip string, err error) {
	slog.Error("IP rate limiter: check failed, allowing request (fail-open)",
		slog.String("error", err.Error()),
		slog.String("ip", ip),
		slog.String("path", r.URL.Path),
	)

	w.WriteHeader(http.StatusOK)
}
