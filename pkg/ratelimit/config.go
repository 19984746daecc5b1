package ratelimit

import (
	"fmt"
	"time"
)

// RateLimitConfig holds every setting the rate limiters need: global
// defaults, per-endpoint overrides, tier limits, memory bounds, and
// circuit breaker thresholds.
type RateLimitConfig struct {
	// Default limit and window for IP-based limiting.
	DefaultIPLimit  int
	DefaultIPWindow time.Duration

	// Default limit and window for user-based limiting.
	DefaultUserLimit  int
	DefaultUserWindow time.Duration

	// Per-endpoint overrides.
	EndpointOverrides []EndpointRateLimitConfig

	// Per-tier user limits.
	TierLimits []TierRateLimitConfig

	// MaxActiveKeys bounds how many keys the in-memory store tracks.
	MaxActiveKeys int

	// CleanupInterval is how often expired entries are swept;
	// CleanupMaxAge is how old an entry must be to be removed.
	CleanupInterval time.Duration
	CleanupMaxAge   time.Duration

	// Circuit breaker opens after this many consecutive failures and
	// probes half-open after the reset timeout.
	CircuitBreakerFailureThreshold int
	CircuitBreakerResetTimeout     time.Duration

	// Enabled turns rate limiting on or off globally.
	Enabled bool
}

// EndpointRateLimitConfig overrides the defaults for one endpoint, so
// sensitive paths like magic-link requests can carry stricter limits.
type EndpointRateLimitConfig struct {
	// PathPattern matches the endpoint, wildcards allowed ("/clients/*").
	PathPattern string

	IPLimit  int
	IPWindow time.Duration

	UserLimit  int
	UserWindow time.Duration
}

// TierRateLimitConfig sets the limit for one user tier.
type TierRateLimitConfig struct {
	Tier   UserTier
	Limit  int
	Window time.Duration
}

// UserTier represents a user's service tier.
type UserTier string

const (
	// TierAdmin has the highest rate limits (typically for administrators)
	TierAdmin UserTier = "admin"

	// TierPremium has elevated rate limits (for paying customers)
	TierPremium UserTier = "premium"

	// TierBasic has standard rate limits (for regular users)
	TierBasic UserTier = "basic"

	// TierViewer has the lowest rate limits (for read-only access)
	TierViewer UserTier = "viewer"
)

// String returns the string representation of the user tier.
func (t UserTier) String() string {
	return string(t)
}

// IsValid checks if the user tier is a recognized value.
func (t UserTier) IsValid() bool {
	switch t {
	case TierAdmin, TierPremium, TierBasic, TierViewer:
		return true
	default:
		return false
	}
}

func nonNegativeInt(name string, v int) error {
	if v < 0 {
		return fmt.Errorf("%s must be non-negative, got %d", name, v)
	}
	return nil
}

func nonNegativeDuration(name string, v time.Duration) error {
	if v < 0 {
		return fmt.Errorf("%s must be non-negative, got %s", name, v)
	}
	return nil
}

// Validate checks every field for out-of-range values. Zero values are
// legal here; ApplyDefaults fills those in.
func (c *RateLimitConfig) Validate() error {
	checks := []error{
		nonNegativeInt("DefaultIPLimit", c.DefaultIPLimit),
		nonNegativeDuration("DefaultIPWindow", c.DefaultIPWindow),
		nonNegativeInt("DefaultUserLimit", c.DefaultUserLimit),
		nonNegativeDuration("DefaultUserWindow", c.DefaultUserWindow),
		nonNegativeInt("MaxActiveKeys", c.MaxActiveKeys),
		nonNegativeDuration("CleanupInterval", c.CleanupInterval),
		nonNegativeDuration("CleanupMaxAge", c.CleanupMaxAge),
		nonNegativeInt("CircuitBreakerFailureThreshold", c.CircuitBreakerFailureThreshold),
		nonNegativeDuration("CircuitBreakerResetTimeout", c.CircuitBreakerResetTimeout),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	for i, override := range c.EndpointOverrides {
		if override.PathPattern == "" {
			return fmt.Errorf("EndpointOverrides[%d].PathPattern cannot be empty", i)
		}
		prefix := fmt.Sprintf("EndpointOverrides[%d]", i)
		checks := []error{
			nonNegativeInt(prefix+".IPLimit", override.IPLimit),
			nonNegativeDuration(prefix+".IPWindow", override.IPWindow),
			nonNegativeInt(prefix+".UserLimit", override.UserLimit),
			nonNegativeDuration(prefix+".UserWindow", override.UserWindow),
		}
		for _, err := range checks {
			if err != nil {
				return err
			}
		}
	}

	for i, tierLimit := range c.TierLimits {
		if !tierLimit.Tier.IsValid() {
			return fmt.Errorf("TierLimits[%d].Tier has invalid value %q", i, tierLimit.Tier)
		}
		prefix := fmt.Sprintf("TierLimits[%d]", i)
		if err := nonNegativeInt(prefix+".Limit", tierLimit.Limit); err != nil {
			return err
		}
		if err := nonNegativeDuration(prefix+".Window", tierLimit.Window); err != nil {
			return err
		}
	}

	return nil
}

// ApplyDefaults fills in safe values for any zero field, so the limiter
// can run even from an incomplete configuration.
func (c *RateLimitConfig) ApplyDefaults() {
	if c.DefaultIPLimit == 0 {
		c.DefaultIPLimit = 100
	}
	if c.DefaultIPWindow == 0 {
		c.DefaultIPWindow = 1 * time.Minute
	}

	if c.DefaultUserLimit == 0 {
		c.DefaultUserLimit = 1000
	}
	if c.DefaultUserWindow == 0 {
		c.DefaultUserWindow = 1 * time.Hour
	}

	if c.MaxActiveKeys == 0 {
		c.MaxActiveKeys = 10000
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = 5 * time.Minute
	}
	if c.CleanupMaxAge == 0 {
		c.CleanupMaxAge = 1 * time.Hour
	}

	if c.CircuitBreakerFailureThreshold == 0 {
		c.CircuitBreakerFailureThreshold = 10
	}
	if c.CircuitBreakerResetTimeout == 0 {
		c.CircuitBreakerResetTimeout = 30 * time.Second
	}

	if !c.Enabled {
		c.Enabled = true
	}
}

// GetTierLimit returns the limit and window for a tier, falling back to
// the default user limit when the tier has no entry.
func (c *RateLimitConfig) GetTierLimit(tier UserTier) (limit int, window time.Duration) {
	for _, tierLimit := range c.TierLimits {
		if tierLimit.Tier == tier {
			return tierLimit.Limit, tierLimit.Window
		}
	}
	return c.DefaultUserLimit, c.DefaultUserWindow
}

// GetEndpointLimit returns the IP and user limits for an endpoint,
// falling back to the defaults when no override matches.
func (c *RateLimitConfig) GetEndpointLimit(pathPattern string) (ipLimit int, ipWindow time.Duration, userLimit int, userWindow time.Duration) {
	for _, override := range c.EndpointOverrides {
		if override.PathPattern == pathPattern {
			return override.IPLimit, override.IPWindow, override.UserLimit, override.UserWindow
		}
	}
	return c.DefaultIPLimit, c.DefaultIPWindow, c.DefaultUserLimit, c.DefaultUserWindow
}

// DefaultConfig returns a RateLimitConfig with all defaults applied.
func DefaultConfig() *RateLimitConfig {
	config := &RateLimitConfig{}
	config.ApplyDefaults()
	return config
}
