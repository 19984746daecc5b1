package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yussieik/pazpaz-sub002/pkg/ratelimit"
)

// UserExtractor pulls the authenticated user's identity and tier out of the
// request context, so the limiter does not care which auth middleware put
// them there.
type UserExtractor interface {
	// ExtractUser returns the user identifier (typically the therapist's
	// email) and tier. ok is false when no user is present in the context.
	ExtractUser(ctx context.Context) (userID string, tier ratelimit.UserTier, ok bool)
}

// JWTUserExtractor reads the user stored in context by the JWT auth
// middleware (the "user" key) and resolves the tier via a UserTierProvider.
type JWTUserExtractor struct {
	contextKey   interface{}
	tierProvider UserTierProvider
}

// UserTierProvider resolves the service tier for a user. Implementations
// may consult the workspace membership table or a cache.
type UserTierProvider interface {
	// GetUserTier returns the tier, or TierBasic when it cannot be determined.
	GetUserTier(ctx context.Context, userID string) ratelimit.UserTier
}

// DefaultTierProvider assigns TierBasic to every user.
type DefaultTierProvider struct{}

func (p *DefaultTierProvider) GetUserTier(ctx context.Context, userID string) ratelimit.UserTier {
	return ratelimit.TierBasic
}

// NewJWTUserExtractor builds an extractor for the given context key. A nil
// tierProvider falls back to DefaultTierProvider.
func NewJWTUserExtractor(contextKey interface{}, tierProvider UserTierProvider) *JWTUserExtractor {
	if tierProvider == nil {
		tierProvider = &DefaultTierProvider{}
	}
	return &JWTUserExtractor{
		contextKey:   contextKey,
		tierProvider: tierProvider,
	}
}

// ExtractUser expects the auth middleware to have stored the validated
// user's email under the configured context key.
func (e *JWTUserExtractor) ExtractUser(ctx context.Context) (userID string, tier ratelimit.UserTier, ok bool) {
	userValue := ctx.Value(e.contextKey)
	if userValue == nil {
		return "", "", false
	}
	userID, ok = userValue.(string)
	if !ok || userID == "" {
		return "", "", false
	}
	return userID, e.tierProvider.GetUserTier(ctx, userID), true
}

// UserRateLimiterConfig configures per-user rate limiting.
type UserRateLimiterConfig struct {
	Store          ratelimit.RateLimitStore
	Algorithm      ratelimit.RateLimitAlgorithm
	Metrics        ratelimit.RateLimitMetrics
	CircuitBreaker *ratelimit.CircuitBreaker
	UserExtractor  UserExtractor

	// TierLimits maps each tier to its limit; DefaultLimit and
	// DefaultWindow apply when a tier is missing from the map.
	TierLimits    map[ratelimit.UserTier]TierLimit
	DefaultLimit  int
	DefaultWindow time.Duration

	// SkipUnauthenticated controls whether requests with no user in
	// context bypass the limiter. Deprecated in favor of
	// SkipUnauthenticatedPtr, which distinguishes "unset" from an
	// explicit false (false limits anonymous callers as a shared
	// "anonymous" key).
	SkipUnauthenticated    bool
	SkipUnauthenticatedPtr *bool

	// Clock provides time abstraction for testing
	Clock ratelimit.Clock
}

// TierLimit defines the rate limit for a specific user tier.
type TierLimit struct {
	Limit  int
	Window time.Duration
}

// UserRateLimiter enforces per-user rate limits keyed on a hash of the
// authenticated user's identity, with limits that vary by service tier.
// Failures in the store or algorithm fail open through the circuit breaker,
// and the optional degradation manager can widen or disable limits under
// pressure.
type UserRateLimiter struct {
	config      UserRateLimiterConfig
	degradation *DegradationManager
}

// SetDegradationManager attaches a degradation manager. When set, tier
// limits are widened (or limiting disabled) according to the manager's
// current level, and breaker state transitions are reported to it.
func (rl *UserRateLimiter) SetDegradationManager(dm *DegradationManager) {
	rl.degradation = dm
}

// NewUserRateLimiter creates a user rate limiter. Zero DefaultLimit and
// DefaultWindow become 1000 requests per hour; a nil Clock becomes
// SystemClock. When SkipUnauthenticatedPtr is nil the deprecated
// SkipUnauthenticated field is promoted to a pointer, so an explicit false
// there still means "limit anonymous callers".
func NewUserRateLimiter(config UserRateLimiterConfig) *UserRateLimiter {
	if config.DefaultLimit == 0 {
		config.DefaultLimit = 1000
	}
	if config.DefaultWindow == 0 {
		config.DefaultWindow = 1 * time.Hour
	}
	if config.Clock == nil {
		config.Clock = &ratelimit.SystemClock{}
	}
	if config.SkipUnauthenticatedPtr == nil {
		config.SkipUnauthenticatedPtr = &config.SkipUnauthenticated
	}

	return &UserRateLimiter{
		config: config,
	}
}

// resolveUser identifies the caller for rate limiting. skip is true
// when an unauthenticated request should bypass the limiter entirely;
// otherwise anonymous callers share one restrictive "anonymous" bucket
// at TierBasic.
func (rl *UserRateLimiter) resolveUser(ctx context.Context) (userID string, tier ratelimit.UserTier, skip bool) {
	userID, tier, ok := rl.config.UserExtractor.ExtractUser(ctx)
	if ok {
		return userID, tier, false
	}

	skipUnauthenticated := true
	if rl.config.SkipUnauthenticatedPtr != nil {
		skipUnauthenticated = *rl.config.SkipUnauthenticatedPtr
	}
	if skipUnauthenticated {
		return "", "", true
	}
	return "anonymous", ratelimit.TierBasic, false
}

// checkLimit runs the rate limit decision through the circuit breaker,
// recording the check duration. A nil decision with a nil error means
// the check could not complete and the caller should fail open.
func (rl *UserRateLimiter) checkLimit(ctx context.Context, hashedUserID string, limit int, window time.Duration) (*ratelimit.RateLimitDecision, error) {
	startTime := rl.config.Clock.Now()

	var decision *ratelimit.RateLimitDecision
	var checkErr error

	circuitErr := rl.config.CircuitBreaker.Execute(func() error {
		decision, checkErr = rl.config.Algorithm.IsAllowed(
			ctx,
			hashedUserID,
			rl.config.Store,
			limit,
			window,
		)
		return checkErr
	})

	rl.config.Metrics.RecordCheckDuration("user", rl.config.Clock.Now().Sub(startTime))
	return decision, circuitErr
}

// Middleware returns the HTTP middleware enforcing the user rate limit.
//
// Allowed requests carry X-RateLimit-Limit, X-RateLimit-Remaining,
// X-RateLimit-Reset, and X-RateLimit-Type: user. Denied requests get a 429
// with a Retry-After header and a JSON body. Check failures and an open
// circuit breaker both fail open.
func (rl *UserRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, tier, skip := rl.resolveUser(r.Context())
			if skip {
				slog.Debug("user rate limiter: skipping unauthenticated request",
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
				)
				next.ServeHTTP(w, r)
				return
			}

			limit, window := rl.getTierLimit(tier)

			// Degradation may widen the tier limit or disable limiting
			if rl.degradation != nil {
				if rl.config.CircuitBreaker != nil && rl.config.CircuitBreaker.IsOpen() {
					rl.degradation.OnCircuitOpen()
				} else {
					rl.degradation.OnCircuitClose()
				}
				limit = rl.degradation.AdjustLimits(limit)
				if limit <= 0 {
					next.ServeHTTP(w, r)
					return
				}
			}

			// The store only ever sees the hash, never the raw identity.
			hashedUserID := hashUserID(userID)

			decision, circuitErr := rl.checkLimit(r.Context(), hashedUserID, limit, window)

			if rl.config.CircuitBreaker.IsOpen() {
				slog.Warn("user rate limiter: circuit breaker open, allowing request",
					slog.String("user_hash", hashedUserID[:16]),
					slog.String("tier", tier.String()),
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			if circuitErr != nil {
				slog.Error("user rate limiter: check failed",
					slog.String("error", circuitErr.Error()),
					slog.String("user_hash", hashedUserID[:16]),
					slog.String("tier", tier.String()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if decision == nil {
				slog.Error("user rate limiter: nil decision returned",
					slog.String("user_hash", hashedUserID[:16]),
					slog.String("tier", tier.String()),
				)
				next.ServeHTTP(w, r)
				return
			}

			decision.LimiterType = "user"

			slog.Debug("rate limit check completed",
				slog.String("limiter_type", "user"),
				slog.String("key", hashedUserID[:16]),
				slog.String("tier", tier.String()),
				slog.Int("current", decision.Limit-decision.Remaining),
				slog.Int("limit", decision.Limit),
				slog.Duration("window", window),
				slog.Bool("allowed", decision.Allowed),
				slog.String("path", r.URL.Path),
			)

			rl.setRateLimitHeaders(w, decision)

			if !decision.Allowed {
				rl.config.Metrics.RecordDenied("user", r.URL.Path)

				slog.Warn("rate limit exceeded",
					slog.String("limiter_type", "user"),
					slog.String("key", hashedUserID[:16]),
					slog.String("tier", tier.String()),
					slog.Int("current", decision.Limit-decision.Remaining),
					slog.Int("limit", decision.Limit),
					slog.Int64("retry_after", decision.RetryAfterSeconds()),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
				)

				rl.writeRateLimitError(w, decision)
				return
			}

			rl.config.Metrics.RecordAllowed("user", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

// getTierLimit resolves the limit for a tier, falling back to the defaults
// for tiers missing from the map.
func (rl *UserRateLimiter) getTierLimit(tier ratelimit.UserTier) (int, time.Duration) {
	if tierLimit, ok := rl.config.TierLimits[tier]; ok {
		return tierLimit.Limit, tierLimit.Window
	}
	return rl.config.DefaultLimit, rl.config.DefaultWindow
}

func (rl *UserRateLimiter) setRateLimitHeaders(w http.ResponseWriter, decision *ratelimit.RateLimitDecision) {
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
	w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", decision.ResetAtUnix()))
	w.Header().Set("X-RateLimit-Type", decision.LimiterType)
}

// writeRateLimitError sends 429 with a Retry-After header and a JSON body
// telling the caller when their quota refills.
func (rl *UserRateLimiter) writeRateLimitError(w http.ResponseWriter, decision *ratelimit.RateLimitDecision) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", decision.RetryAfterSeconds()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	errorBody := fmt.Sprintf(`{
  "error": "rate limit exceeded",
  "message": "You have exceeded your hourly request quota. Please try again in %d seconds.",
  "retry_after_seconds": %d,
  "limit": %d,
  "window": "%s"
}`,
		decision.RetryAfterSeconds(),
		decision.RetryAfterSeconds(),
		decision.Limit,
		rl.config.DefaultWindow.String(),
	)

	if _, err := w.Write([]byte(errorBody)); err != nil {
		slog.Error("user rate limiter: failed to write error response",
			slog.String("error", err.Error()),
		)
	}
}

// hashUserID returns the hex SHA-256 of the user ID. Deterministic, so the
// same user always maps to the same rate limit key.
func hashUserID(userID string) string {
	hash := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(hash[:])
}

// NewDefaultTierLimits returns the stock per-hour tier limits.
func NewDefaultTierLimits() map[ratelimit.UserTier]TierLimit {
	return map[ratelimit.UserTier]TierLimit{
		ratelimit.TierAdmin:   {Limit: 10000, Window: 1 * time.Hour},
		ratelimit.TierPremium: {Limit: 5000, Window: 1 * time.Hour},
		ratelimit.TierBasic:   {Limit: 1000, Window: 1 * time.Hour},
		ratelimit.TierViewer:  {Limit: 500, Window: 1 * time.Hour},
	}
}

// BoolPtr returns a pointer to v, handy for SkipUnauthenticatedPtr.
func BoolPtr(v bool) *bool {
	return &v
}
