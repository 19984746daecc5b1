package ratelimit

import (
	"fmt"
	"time"
)

// RateLimitDecision is the result of a rate limit check: whether the
// request may proceed, plus the metadata clients need to understand the
// current window.
type RateLimitDecision struct {
	// Key is the identifier the limit was checked against, an IP address
	// or a user ID.
	Key string

	// Allowed reports whether the request is within the limit.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests left in the current window.
	// Negative values mean the request exceeded the limit.
	Remaining int

	// ResetAt is when the current window resets.
	ResetAt time.Time

	// RetryAfter is how long the client should wait before retrying,
	// computed as ResetAt minus now.
	RetryAfter time.Duration

	// LimiterType identifies which limiter decided, "ip" or "user".
	LimiterType string
}

// String returns a human-readable representation of the decision.
func (d *RateLimitDecision) String() string {
	if d.Allowed {
		return fmt.Sprintf(
			"RateLimitDecision{Allowed: true, Key: %s, Type: %s, Remaining: %d/%d, ResetAt: %s}",
			d.Key,
			d.LimiterType,
			d.Remaining,
			d.Limit,
			d.ResetAt.Format(time.RFC3339),
		)
	}

	return fmt.Sprintf(
		"RateLimitDecision{Allowed: false, Key: %s, Type: %s, Limit: %d, RetryAfter: %s, ResetAt: %s}",
		d.Key,
		d.LimiterType,
		d.Limit,
		d.RetryAfter.String(),
		d.ResetAt.Format(time.RFC3339),
	)
}

// IsAllowed reports whether the request is allowed.
func (d *RateLimitDecision) IsAllowed() bool {
	return d.Allowed
}

// IsDenied reports whether the request is denied.
func (d *RateLimitDecision) IsDenied() bool {
	return !d.Allowed
}

// HasRemaining reports whether requests remain in the current window.
func (d *RateLimitDecision) HasRemaining() bool {
	return d.Remaining > 0
}

// ResetAtUnix returns the reset time as a Unix timestamp, the form the
// X-RateLimit-Reset header wants.
func (d *RateLimitDecision) ResetAtUnix() int64 {
	return d.ResetAt.Unix()
}

// RetryAfterSeconds returns the retry delay in whole seconds for the
// Retry-After header, clamped at zero.
func (d *RateLimitDecision) RetryAfterSeconds() int64 {
	seconds := int64(d.RetryAfter.Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}

// NewAllowedDecision builds a decision for a request within the limit.
func NewAllowedDecision(key, limiterType string, limit, remaining int, resetAt time.Time) *RateLimitDecision {
	retryAfter := time.Until(resetAt)
	if retryAfter < 0 {
		retryAfter = 0
	}

	return &RateLimitDecision{
		Key:         key,
		Allowed:     true,
		Limit:       limit,
		Remaining:   remaining,
		ResetAt:     resetAt,
		RetryAfter:  retryAfter,
		LimiterType: limiterType,
	}
}

// NewDeniedDecision builds a decision for a request over the limit.
// Remaining is always zero.
func NewDeniedDecision(key, limiterType string, limit int, resetAt time.Time) *RateLimitDecision {
	retryAfter := time.Until(resetAt)
	if retryAfter < 0 {
		retryAfter = 0
	}

	return &RateLimitDecision{
		Key:         key,
		Allowed:     false,
		Limit:       limit,
		Remaining:   0,
		ResetAt:     resetAt,
		RetryAfter:  retryAfter,
		LimiterType: limiterType,
	}
}
