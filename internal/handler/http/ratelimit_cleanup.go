package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/middleware"
	"github.com/yussieik/pazpaz-sub002/pkg/config"
	"github.com/yussieik/pazpaz-sub002/pkg/ratelimit"
)

// StartRateLimitCleanupLegacy runs periodic cleanup for the lightweight
// middleware.RateLimiter until the context is cancelled. Without it the
// limiter's timestamp map grows with every new client.
func StartRateLimitCleanupLegacy(
	ctx context.Context,
	limiter *middleware.RateLimiter,
	interval time.Duration,
	limiterType string,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("rate limit cleanup started (legacy)",
		slog.String("limiter_type", limiterType),
		slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limit cleanup stopped (legacy)",
				slog.String("limiter_type", limiterType))
			return

		case <-ticker.C:
			limiter.CleanupExpired()

			slog.Debug("rate limit cleanup completed (legacy)",
				slog.String("limiter_type", limiterType))
		}
	}
}

// storeStats reads key count and memory usage from the store in one call
// so cleanup can report before/after deltas.
func storeStats(ctx context.Context, store *ratelimit.InMemoryRateLimitStore, limiterType, when string) (keys int, memory int64, ok bool) {
	keys, err := store.KeyCount(ctx)
	if err != nil {
		slog.Error("failed to get key count "+when+" cleanup",
			slog.String("limiter_type", limiterType),
			slog.Any("error", err))
		return 0, 0, false
	}

	memory, err = store.MemoryUsage(ctx)
	if err != nil {
		slog.Error("failed to get memory usage "+when+" cleanup",
			slog.String("limiter_type", limiterType),
			slog.Any("error", err))
		return 0, 0, false
	}

	return keys, memory, true
}

// StartRateLimitCleanup runs periodic cleanup for a rate limit store
// until the context is cancelled. Each sweep drops timestamps older than
// twice the window and logs how many keys and bytes it reclaimed.
func StartRateLimitCleanup(
	ctx context.Context,
	store *ratelimit.InMemoryRateLimitStore,
	interval time.Duration,
	windowDuration time.Duration,
	limiterType string,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("rate limit cleanup started",
		slog.String("limiter_type", limiterType),
		slog.Duration("interval", interval),
		slog.Duration("window_duration", windowDuration))

	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limit cleanup stopped",
				slog.String("limiter_type", limiterType))
			return

		case <-ticker.C:
			// Twice the window leaves headroom for clock skew and
			// requests in flight during the sweep.
			cutoff := time.Now().Add(-2 * windowDuration)

			keysBefore, memoryBefore, ok := storeStats(ctx, store, limiterType, "before")
			if !ok {
				continue
			}

			if err := store.Cleanup(ctx, cutoff); err != nil {
				slog.Error("rate limit cleanup failed",
					slog.String("limiter_type", limiterType),
					slog.Any("error", err))
				continue
			}

			keysAfter, memoryAfter, ok := storeStats(ctx, store, limiterType, "after")
			if !ok {
				continue
			}

			memoryFreed := memoryBefore - memoryAfter
			slog.Debug("rate limit cleanup completed",
				slog.String("limiter_type", limiterType),
				slog.Int("active_keys_before", keysBefore),
				slog.Int("active_keys_after", keysAfter),
				slog.Int("keys_removed", keysBefore-keysAfter),
				slog.Int64("memory_freed_bytes", memoryFreed),
				slog.Float64("memory_freed_mb", float64(memoryFreed)/(1024*1024)),
				slog.Time("cutoff_time", cutoff))

			const warningThresholdMB = 80
			currentMemoryMB := float64(memoryAfter) / (1024 * 1024)
			if currentMemoryMB > warningThresholdMB {
				slog.Warn("rate limit store memory usage is high",
					slog.String("limiter_type", limiterType),
					slog.Float64("memory_usage_mb", currentMemoryMB),
					slog.Int("active_keys", keysAfter))
			}
		}
	}
}

// CleanupConfig holds rate limit cleanup settings.
type CleanupConfig struct {
	// Interval is how often cleanup sweeps run.
	Interval time.Duration

	// WindowDuration is the rate limit window; the sweep cutoff is
	// twice this value.
	WindowDuration time.Duration

	// LimiterType tags log lines, "ip" or "user".
	LimiterType string
}

// DefaultCleanupInterval applies when RATELIMIT_CLEANUP_INTERVAL is unset.
const DefaultCleanupInterval = 5 * time.Minute

// LoadCleanupConfigFromEnv reads RATELIMIT_CLEANUP_INTERVAL, falling back
// to the default rather than failing on a bad value.
func LoadCleanupConfigFromEnv() CleanupConfig {
	return CleanupConfig{
		Interval: config.GetEnvDuration("RATELIMIT_CLEANUP_INTERVAL", DefaultCleanupInterval),
	}
}
