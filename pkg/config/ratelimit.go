package config

import (
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/yussieik/pazpaz-sub002/pkg/ratelimit"
)

// envLimit reads a non-negative integer limit from the environment,
// logging a warning and falling back to the default on a negative value.
func envLimit(key string, def int) int {
	v := GetEnvInt(key, def)
	if v < 0 {
		slog.Warn("invalid "+key+", using default",
			slog.Int("value", v),
			slog.Int("default", def))
		return def
	}
	return v
}

// envWindow reads a positive duration from the environment, logging a
// warning and falling back to the default when the value is not positive.
func envWindow(key string, def time.Duration) time.Duration {
	v := GetEnvDuration(key, def)
	if err := ValidatePositiveDuration(v); err != nil {
		slog.Warn("invalid "+key+", using default",
			slog.String("value", v.String()),
			slog.String("default", def.String()),
			slog.String("error", err.Error()))
		return def
	}
	return v
}

// LoadRateLimitConfig loads rate limiting configuration from environment
// variables: RATELIMIT_ENABLED, RATELIMIT_IP_LIMIT, RATELIMIT_IP_WINDOW,
// RATELIMIT_USER_LIMIT, RATELIMIT_USER_WINDOW, RATELIMIT_MAX_KEYS,
// RATELIMIT_CLEANUP_INTERVAL, RATELIMIT_CB_FAILURE_THRESHOLD, and
// RATELIMIT_CB_RECOVERY_TIMEOUT, plus the per-tier variables read by
// loadTierLimits. Invalid values never fail the load; they are logged and
// replaced with defaults so the server always starts with limits in place.
func LoadRateLimitConfig() (*ratelimit.RateLimitConfig, error) {
	config := &ratelimit.RateLimitConfig{
		Enabled: GetEnvBool("RATELIMIT_ENABLED", true),

		DefaultIPLimit:    envLimit("RATELIMIT_IP_LIMIT", 100),
		DefaultIPWindow:   envWindow("RATELIMIT_IP_WINDOW", 1*time.Minute),
		DefaultUserLimit:  envLimit("RATELIMIT_USER_LIMIT", 1000),
		DefaultUserWindow: envWindow("RATELIMIT_USER_WINDOW", 1*time.Hour),

		TierLimits: loadTierLimits(),

		MaxActiveKeys:   envLimit("RATELIMIT_MAX_KEYS", 10000),
		CleanupInterval: envWindow("RATELIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		// Not exposed as an env var.
		CleanupMaxAge: 1 * time.Hour,

		CircuitBreakerFailureThreshold: envLimit("RATELIMIT_CB_FAILURE_THRESHOLD", 10),
		CircuitBreakerResetTimeout:     envWindow("RATELIMIT_CB_RECOVERY_TIMEOUT", 30*time.Second),
	}

	if err := config.Validate(); err != nil {
		slog.Warn("rate limit configuration validation failed, applying defaults",
			slog.String("error", err.Error()))
		config.ApplyDefaults()
	}

	return config, nil
}

// loadTierLimits loads per-tier hourly limits from RATELIMIT_TIER_ADMIN,
// RATELIMIT_TIER_PREMIUM, RATELIMIT_TIER_BASIC, and RATELIMIT_TIER_VIEWER.
func loadTierLimits() []ratelimit.TierRateLimitConfig {
	tiers := []struct {
		tier ratelimit.UserTier
		key  string
		def  int
	}{
		{ratelimit.TierAdmin, "RATELIMIT_TIER_ADMIN", 10000},
		{ratelimit.TierPremium, "RATELIMIT_TIER_PREMIUM", 5000},
		{ratelimit.TierBasic, "RATELIMIT_TIER_BASIC", 1000},
		{ratelimit.TierViewer, "RATELIMIT_TIER_VIEWER", 500},
	}

	tierLimits := make([]ratelimit.TierRateLimitConfig, 0, len(tiers))
	for _, t := range tiers {
		tierLimits = append(tierLimits, ratelimit.TierRateLimitConfig{
			Tier:   t.tier,
			Limit:  envLimit(t.key, t.def),
			Window: 1 * time.Hour,
		})
	}
	return tierLimits
}

// CSPConfig holds Content Security Policy settings.
type CSPConfig struct {
	// Enabled controls whether CSP headers are applied.
	Enabled bool

	// ReportOnly switches to Content-Security-Policy-Report-Only, which
	// logs violations without enforcing them.
	ReportOnly bool

	// TrustedScriptSources lists additional trusted script sources.
	TrustedScriptSources []string

	// TrustedStyleSources lists additional trusted style sources.
	TrustedStyleSources []string
}

// LoadCSPConfig loads CSP configuration from CSP_ENABLED and
// CSP_REPORT_ONLY.
func LoadCSPConfig() (*CSPConfig, error) {
	config := &CSPConfig{
		Enabled:    GetEnvBool("CSP_ENABLED", true),
		ReportOnly: GetEnvBool("CSP_REPORT_ONLY", false),
	}

	return config, nil
}

// ValidateTrustedProxies checks that each entry is a valid IP address or
// CIDR range, matching what the rate limiter's proxy extractor accepts.
func ValidateTrustedProxies(cidrs []string) error {
	for _, cidr := range cidrs {
		if cidr == "" {
			return fmt.Errorf("CIDR cannot be empty")
		}
		if _, err := netip.ParsePrefix(cidr); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(cidr); err != nil {
			return fmt.Errorf("invalid trusted proxy '%s': must be an IP address or CIDR range", cidr)
		}
	}
	return nil
}
