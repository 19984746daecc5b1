package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter smooths reminder delivery so bursts stay within the rate
// limits of the Slack and webhook endpoints they fan out to. It wraps a
// token bucket: up to burst sends go out immediately, then tokens
// refill at the sustained rate.
type RateLimiter struct {
	rate    rate.Limit
	burst   int
	limiter *rate.Limiter
}

// NewRateLimiter returns a limiter allowing requestsPerSecond sustained
// throughput with the given burst capacity.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	r := rate.Limit(requestsPerSecond)

	return &RateLimiter{
		rate:    r,
		burst:   burst,
		limiter: rate.NewLimiter(r, burst),
	}
}

// Allow blocks until a token is available or the context is canceled.
// Call it before each outbound delivery.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
