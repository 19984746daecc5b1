package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/yussieik/pazpaz-sub002/pkg/ratelimit"
)

// mockUserExtractor is a mock implementation of UserExtractor for testing.
type mockUserExtractor struct {
	userID string
	tier   ratelimit.UserTier
	ok     bool
}

func (m *mockUserExtractor) ExtractUser(ctx context.Context) (string, ratelimit.UserTier, bool) {
	return m.userID, m.tier, m.ok
}

// mockUserTierProvider maps user IDs to tiers for testing.
type mockUserTierProvider struct {
	tiers map[string]ratelimit.UserTier
}

func (m *mockUserTierProvider) GetUserTier(ctx context.Context, userID string) ratelimit.UserTier {
	if tier, ok := m.tiers[userID]; ok {
		return tier
	}
	return ratelimit.TierBasic
}

// newUserLimiterConfig builds a config with sane test defaults; tests
// override the fields they exercise.
func newUserLimiterConfig(extractor UserExtractor, tierLimits map[ratelimit.UserTier]TierLimit) UserRateLimiterConfig {
	return UserRateLimiterConfig{
		Store:     newMockRateLimitStore(),
		Algorithm: &mockRateLimitAlgorithm{},
		Metrics:   newMockRateLimitMetrics(),
		CircuitBreaker: ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
			LimiterType: "user",
		}),
		UserExtractor: extractor,
		TierLimits:    tierLimits,
		DefaultLimit:  1000,
		DefaultWindow: 1 * time.Hour,
	}
}

func serveUser(handler http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

var userOKHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// TestJWTUserExtractor_ExtractUser covers extraction from the auth context,
// including the failure shapes the middleware must treat as unauthenticated.
func TestJWTUserExtractor_ExtractUser(t *testing.T) {
	testCases := []struct {
		name         string
		contextKey   interface{}
		contextValue interface{}
		tierProvider UserTierProvider
		wantUser     string
		wantTier     ratelimit.UserTier
		wantOK       bool
	}{
		{
			name:         "therapist with premium workspace",
			contextKey:   "user",
			contextValue: "maya@pazpaz.health",
			tierProvider: &mockUserTierProvider{
				tiers: map[string]ratelimit.UserTier{"maya@pazpaz.health": ratelimit.TierPremium},
			},
			wantUser: "maya@pazpaz.health",
			wantTier: ratelimit.TierPremium,
			wantOK:   true,
		},
		{
			name:         "nil tier provider defaults to basic",
			contextKey:   "user",
			contextValue: "adi@pazpaz.health",
			wantUser:     "adi@pazpaz.health",
			wantTier:     ratelimit.TierBasic,
			wantOK:       true,
		},
		{name: "user under a different key", contextKey: "other", contextValue: "something"},
		{name: "no value in context", contextKey: "user", contextValue: nil},
		{name: "non-string context value", contextKey: "user", contextValue: 123},
		{name: "empty string user", contextKey: "user", contextValue: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			extractor := NewJWTUserExtractor("user", tc.tierProvider)

			ctx := context.Background()
			if tc.contextValue != nil {
				ctx = context.WithValue(ctx, tc.contextKey, tc.contextValue)
			}

			userID, tier, ok := extractor.ExtractUser(ctx)
			if ok != tc.wantOK || userID != tc.wantUser || tier != tc.wantTier {
				t.Errorf("ExtractUser = (%q, %s, %v), want (%q, %s, %v)",
					userID, tier, ok, tc.wantUser, tc.wantTier, tc.wantOK)
			}
		})
	}
}

func TestDefaultTierProvider(t *testing.T) {
	provider := &DefaultTierProvider{}
	if tier := provider.GetUserTier(context.Background(), "anyone@pazpaz.health"); tier != ratelimit.TierBasic {
		t.Errorf("Expected TierBasic, got %s", tier)
	}
}

// TestNewUserRateLimiter verifies defaults applied at construction.
func TestNewUserRateLimiter(t *testing.T) {
	config := newUserLimiterConfig(&mockUserExtractor{}, nil)
	config.DefaultLimit = 0
	config.DefaultWindow = 0

	limiter := NewUserRateLimiter(config)

	if limiter.config.DefaultLimit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", limiter.config.DefaultLimit)
	}
	if limiter.config.DefaultWindow != 1*time.Hour {
		t.Errorf("Expected default window 1h, got %s", limiter.config.DefaultWindow)
	}
	if limiter.config.Clock == nil {
		t.Error("Expected default clock to be set")
	}
}

// TestUserRateLimiter_SkipUnauthenticated verifies unauthenticated traffic
// bypasses per-user limiting when configured to.
func TestUserRateLimiter_SkipUnauthenticated(t *testing.T) {
	config := newUserLimiterConfig(&mockUserExtractor{ok: false}, nil)
	config.SkipUnauthenticated = true

	handler := NewUserRateLimiter(config).Middleware()(userOKHandler)

	for i := 0; i < 5; i++ {
		if rec := serveUser(handler); rec.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

// TestUserRateLimiter_GetTierLimit verifies tier resolution, including the
// fallback to defaults for unconfigured tiers.
func TestUserRateLimiter_GetTierLimit(t *testing.T) {
	limiter := NewUserRateLimiter(newUserLimiterConfig(&mockUserExtractor{},
		map[ratelimit.UserTier]TierLimit{
			ratelimit.TierPremium: {Limit: 5000, Window: 1 * time.Hour},
		}))

	testCases := []struct {
		name       string
		tier       ratelimit.UserTier
		wantLimit  int
		wantWindow time.Duration
	}{
		{"configured tier", ratelimit.TierPremium, 5000, 1 * time.Hour},
		{"unconfigured tier falls back to default", ratelimit.TierBasic, 1000, 1 * time.Hour},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			limit, window := limiter.getTierLimit(tc.tier)
			if limit != tc.wantLimit || window != tc.wantWindow {
				t.Errorf("getTierLimit(%s) = (%d, %s), want (%d, %s)",
					tc.tier, limit, window, tc.wantLimit, tc.wantWindow)
			}
		})
	}
}

// TestUserRateLimiter_EnforcesTierLimit walks a basic-tier therapist through
// the quota: allowed with headers, then 429 with the JSON error body.
func TestUserRateLimiter_EnforcesTierLimit(t *testing.T) {
	config := newUserLimiterConfig(
		&mockUserExtractor{userID: "maya@pazpaz.health", tier: ratelimit.TierBasic, ok: true},
		map[ratelimit.UserTier]TierLimit{
			ratelimit.TierBasic: {Limit: 2, Window: 1 * time.Minute},
		})

	handler := NewUserRateLimiter(config).Middleware()(userOKHandler)

	for i := 0; i < 2; i++ {
		rec := serveUser(handler)
		if rec.Code != http.StatusOK {
			t.Fatalf("Request %d should succeed, got status %d", i+1, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "2" {
			t.Errorf("Expected X-RateLimit-Limit=2, got %s", rec.Header().Get("X-RateLimit-Limit"))
		}
		if rec.Header().Get("X-RateLimit-Type") != "user" {
			t.Errorf("Expected X-RateLimit-Type=user, got %s", rec.Header().Get("X-RateLimit-Type"))
		}
	}

	rec := serveUser(handler)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type=application/json, got %s", ct)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["error"] != "rate limit exceeded" {
		t.Errorf("Expected error='rate limit exceeded', got %v", response["error"])
	}
	for _, field := range []string{"message", "retry_after_seconds", "limit"} {
		if response[field] == nil {
			t.Errorf("Expected %s field in error body", field)
		}
	}
}

// TestUserRateLimiter_CircuitBreakerFailOpen verifies the limiter lets
// traffic through when its breaker is open.
func TestUserRateLimiter_CircuitBreakerFailOpen(t *testing.T) {
	config := newUserLimiterConfig(
		&mockUserExtractor{userID: "maya@pazpaz.health", tier: ratelimit.TierBasic, ok: true},
		map[ratelimit.UserTier]TierLimit{
			ratelimit.TierBasic: {Limit: 1, Window: 1 * time.Minute},
		})
	config.CircuitBreaker = ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
		FailureThreshold: 1,
		LimiterType:      "user",
	})
	config.CircuitBreaker.RecordFailure()

	handler := NewUserRateLimiter(config).Middleware()(userOKHandler)

	for i := 0; i < 5; i++ {
		if rec := serveUser(handler); rec.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200 (circuit open), got %d", i+1, rec.Code)
		}
	}
}

// TestUserRateLimiter_ConcurrentRequests verifies the quota holds exactly
// under parallel load.
func TestUserRateLimiter_ConcurrentRequests(t *testing.T) {
	config := newUserLimiterConfig(
		&mockUserExtractor{userID: "maya@pazpaz.health", tier: ratelimit.TierBasic, ok: true},
		map[ratelimit.UserTier]TierLimit{
			ratelimit.TierBasic: {Limit: 50, Window: 1 * time.Minute},
		})

	handler := NewUserRateLimiter(config).Middleware()(userOKHandler)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var allowed, denied int

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := serveUser(handler)

			mu.Lock()
			switch rec.Code {
			case http.StatusOK:
				allowed++
			case http.StatusTooManyRequests:
				denied++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if allowed != 50 || denied != 50 {
		t.Errorf("Expected 50 allowed / 50 denied, got %d / %d", allowed, denied)
	}
}

// TestHashUserID verifies the privacy hash used for storage keys.
func TestHashUserID(t *testing.T) {
	// SHA-256 of the empty string is a fixed vector
	const emptyHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := hashUserID(""); got != emptyHash {
		t.Errorf("hashUserID(\"\") = %s, want %s", got, emptyHash)
	}

	h1 := hashUserID("maya@pazpaz.health")
	h2 := hashUserID("maya@pazpaz.health")
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(h1))
	}
	if h1 == hashUserID("adi@pazpaz.health") {
		t.Error("Different users should hash to different keys")
	}
}

// TestNewDefaultTierLimits pins the shipped tier quotas.
func TestNewDefaultTierLimits(t *testing.T) {
	limits := NewDefaultTierLimits()

	testCases := []struct {
		tier       ratelimit.UserTier
		wantLimit  int
		wantWindow time.Duration
	}{
		{ratelimit.TierAdmin, 10000, 1 * time.Hour},
		{ratelimit.TierPremium, 5000, 1 * time.Hour},
		{ratelimit.TierBasic, 1000, 1 * time.Hour},
		{ratelimit.TierViewer, 500, 1 * time.Hour},
	}

	for _, tc := range testCases {
		t.Run(tc.tier.String(), func(t *testing.T) {
			limit, ok := limits[tc.tier]
			if !ok {
				t.Fatalf("Expected tier %s to be configured", tc.tier)
			}
			if limit.Limit != tc.wantLimit || limit.Window != tc.wantWindow {
				t.Errorf("Tier %s = (%d, %s), want (%d, %s)",
					tc.tier, limit.Limit, limit.Window, tc.wantLimit, tc.wantWindow)
			}
		})
	}
}

// TestUserRateLimiter_MetricsRecorded verifies allow/deny counts and check
// durations reach the metrics collector.
func TestUserRateLimiter_MetricsRecorded(t *testing.T) {
	metrics := newMockRateLimitMetrics()
	config := newUserLimiterConfig(
		&mockUserExtractor{userID: "maya@pazpaz.health", tier: ratelimit.TierBasic, ok: true},
		map[ratelimit.UserTier]TierLimit{
			ratelimit.TierBasic: {Limit: 2, Window: 1 * time.Minute},
		})
	config.Metrics = metrics

	handler := NewUserRateLimiter(config).Middleware()(userOKHandler)
	for i := 0; i < 3; i++ {
		serveUser(handler)
	}

	if metrics.allowed != 2 {
		t.Errorf("Expected 2 allowed, got %d", metrics.allowed)
	}
	if metrics.denied != 1 {
		t.Errorf("Expected 1 denied, got %d", metrics.denied)
	}
	if len(metrics.checkDurations) != 3 {
		t.Errorf("Expected 3 check duration records, got %d", len(metrics.checkDurations))
	}
}

// TestUserRateLimiter_AnonymousUser verifies that with skipping disabled,
// unauthenticated traffic shares one "anonymous" bucket.
func TestUserRateLimiter_AnonymousUser(t *testing.T) {
	config := newUserLimiterConfig(&mockUserExtractor{ok: false},
		map[ratelimit.UserTier]TierLimit{
			ratelimit.TierBasic: {Limit: 2, Window: 1 * time.Minute},
		})
	config.SkipUnauthenticated = false

	handler := NewUserRateLimiter(config).Middleware()(userOKHandler)

	for i := 0; i < 2; i++ {
		if rec := serveUser(handler); rec.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	if rec := serveUser(handler); rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 for anonymous user, got %d", rec.Code)
	}
}

// TestUserRateLimiter_UsersAreIsolated verifies one therapist exhausting
// their quota does not spend another's.
func TestUserRateLimiter_UsersAreIsolated(t *testing.T) {
	store := newMockRateLimitStore()

	for _, user := range []string{"maya@pazpaz.health", "adi@pazpaz.health"} {
		config := newUserLimiterConfig(
			&mockUserExtractor{userID: user, tier: ratelimit.TierBasic, ok: true},
			map[ratelimit.UserTier]TierLimit{
				ratelimit.TierBasic: {Limit: 2, Window: 1 * time.Minute},
			})
		config.Store = store

		handler := NewUserRateLimiter(config).Middleware()(userOKHandler)

		for i := 0; i < 2; i++ {
			if rec := serveUser(handler); rec.Code != http.StatusOK {
				t.Errorf("User %s request %d: expected 200, got %d", user, i+1, rec.Code)
			}
		}
		if rec := serveUser(handler); rec.Code != http.StatusTooManyRequests {
			t.Errorf("User %s 3rd request: expected 429, got %d", user, rec.Code)
		}
	}
}

// TestUserRateLimiter_NilDecision verifies fail-open when the algorithm
// returns no decision.
func TestUserRateLimiter_NilDecision(t *testing.T) {
	config := newUserLimiterConfig(
		&mockUserExtractor{userID: "maya@pazpaz.health", tier: ratelimit.TierBasic, ok: true},
		map[ratelimit.UserTier]TierLimit{
			ratelimit.TierBasic: {Limit: 5, Window: 1 * time.Minute},
		})
	config.Algorithm = &mockRateLimitAlgorithm{decision: nil}

	handler := NewUserRateLimiter(config).Middleware()(userOKHandler)
	if rec := serveUser(handler); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 (fail-open), got %d", rec.Code)
	}
}

func BenchmarkUserRateLimiter_Middleware(b *testing.B) {
	config := newUserLimiterConfig(
		&mockUserExtractor{userID: "maya@pazpaz.health", tier: ratelimit.TierBasic, ok: true},
		NewDefaultTierLimits())

	handler := NewUserRateLimiter(config).Middleware()(userOKHandler)
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}
}

func BenchmarkHashUserID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = hashUserID("maya@pazpaz.health")
	}
}
