package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/yussieik/pazpaz-sub002/pkg/ratelimit"
)

// DegradationLevel is how far rate limiting has been relaxed in
// response to system stress. Higher levels widen the limits.
type DegradationLevel int

const (
	// LevelNormal applies the configured limits unchanged.
	LevelNormal DegradationLevel = iota

	// LevelRelaxed doubles the limits. Entered when the circuit
	// breaker opens against the limiter backend.
	LevelRelaxed

	// LevelMinimal multiplies limits tenfold. Entered under memory
	// pressure, when the store is nearing capacity.
	LevelMinimal

	// LevelDisabled turns rate limiting off entirely. Entered when the
	// circuit is open and memory pressure is high at the same time.
	// Availability wins over throttling at this point.
	LevelDisabled
)

func (l DegradationLevel) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelRelaxed:
		return "relaxed"
	case LevelMinimal:
		return "minimal"
	case LevelDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// DegradationConfig holds configuration for the degradation manager.
type DegradationConfig struct {
	// AutoAdjust lets health signals move the level. Default true.
	AutoAdjust bool

	// CooldownPeriod is the minimum gap between level changes, so a
	// flapping circuit does not bounce the limits. Default 1m.
	CooldownPeriod time.Duration

	// RelaxedMultiplier widens limits at LevelRelaxed. Default 2.
	RelaxedMultiplier int

	// MinimalMultiplier widens limits at LevelMinimal. Default 10.
	MinimalMultiplier int

	// Clock supplies time; tests inject a manual clock.
	Clock ratelimit.Clock

	// Metrics records level changes. Default NoOpMetrics.
	Metrics ratelimit.RateLimitMetrics

	// LimiterType labels the managed limiter, "ip" or "user".
	LimiterType string
}

// DefaultDegradationConfig returns default configuration for degradation manager.
func DefaultDegradationConfig() DegradationConfig {
	return DegradationConfig{
		AutoAdjust:        true,
		CooldownPeriod:    1 * time.Minute,
		RelaxedMultiplier: 2,
		MinimalMultiplier: 10,
		Clock:             &ratelimit.SystemClock{},
		Metrics:           &ratelimit.NoOpMetrics{},
	}
}

// DegradationManager tracks two health signals, circuit breaker state
// and store memory pressure, and translates them into a degradation
// level the limiters consult on every request. An operator can pin the
// level manually; the signals keep being recorded underneath so the
// automatic level is correct the moment the override is cleared.
type DegradationManager struct {
	config DegradationConfig

	mu              sync.RWMutex
	currentLevel    DegradationLevel
	lastLevelChange time.Time
	circuitOpen     bool
	memoryPressure  bool
	manualOverride  *DegradationLevel
}

// NewDegradationManager creates a manager at LevelNormal, applying
// defaults for zero config values.
func NewDegradationManager(config DegradationConfig) *DegradationManager {
	if config.CooldownPeriod <= 0 {
		config.CooldownPeriod = 1 * time.Minute
	}
	if config.RelaxedMultiplier <= 0 {
		config.RelaxedMultiplier = 2
	}
	if config.MinimalMultiplier <= 0 {
		config.MinimalMultiplier = 10
	}
	if config.Clock == nil {
		config.Clock = &ratelimit.SystemClock{}
	}
	if config.Metrics == nil {
		config.Metrics = &ratelimit.NoOpMetrics{}
	}

	dm := &DegradationManager{
		config:          config,
		currentLevel:    LevelNormal,
		lastLevelChange: config.Clock.Now(),
	}
	config.Metrics.RecordDegradationLevel(config.LimiterType, int(LevelNormal))
	return dm
}

// GetLevel returns the effective level, honoring a manual override.
func (dm *DegradationManager) GetLevel() DegradationLevel {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	if dm.manualOverride != nil {
		return *dm.manualOverride
	}
	return dm.currentLevel
}

// SetLevel pins the level manually until ClearManualOverride. Used for
// operational control, forcing strict limits during an incident or
// disabling throttling during an emergency.
func (dm *DegradationManager) SetLevel(level DegradationLevel) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.manualOverride = &level
	dm.config.Metrics.RecordDegradationLevel(dm.config.LimiterType, int(level))

	slog.Info("Degradation level manually set",
		slog.String("limiter_type", dm.config.LimiterType),
		slog.String("level", level.String()),
	)
}

// ClearManualOverride removes the pin and resumes automatic adjustment.
func (dm *DegradationManager) ClearManualOverride() {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.manualOverride != nil {
		dm.manualOverride = nil

		slog.Info("Degradation manual override cleared, resuming auto-adjustment",
			slog.String("limiter_type", dm.config.LimiterType),
			slog.String("current_level", dm.currentLevel.String()),
		)

		dm.config.Metrics.RecordDegradationLevel(dm.config.LimiterType, int(dm.currentLevel))
	}
}

// AdjustLimits scales baseLimit for the current level. A return of 0
// means rate limiting is disabled.
func (dm *DegradationManager) AdjustLimits(baseLimit int) int {
	switch dm.GetLevel() {
	case LevelRelaxed:
		return baseLimit * dm.config.RelaxedMultiplier
	case LevelMinimal:
		return baseLimit * dm.config.MinimalMultiplier
	case LevelDisabled:
		return 0
	default:
		return baseLimit
	}
}

// OnCircuitOpen records that the limiter backend is failing. The
// signal is stored even when auto-adjust is off or an override is set.
func (dm *DegradationManager) OnCircuitOpen() {
	dm.signal(func() { dm.circuitOpen = true })
}

// OnCircuitClose records that the limiter backend recovered.
func (dm *DegradationManager) OnCircuitClose() {
	dm.signal(func() { dm.circuitOpen = false })
}

// OnHighMemoryPressure records that the store is nearing capacity.
func (dm *DegradationManager) OnHighMemoryPressure() {
	dm.signal(func() { dm.memoryPressure = true })
}

// OnNormalMemoryPressure records that store capacity recovered.
func (dm *DegradationManager) OnNormalMemoryPressure() {
	dm.signal(func() { dm.memoryPressure = false })
}

// signal applies a health-state update and re-evaluates the level
// unless auto-adjust is off or a manual override is pinned.
func (dm *DegradationManager) signal(update func()) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	update()

	if !dm.config.AutoAdjust || dm.manualOverride != nil {
		return
	}
	dm.adjustLevel()
}

// adjustLevel maps the health indicators to a level: both bad means
// Disabled, memory pressure alone means Minimal, an open circuit alone
// means Relaxed, and all-clear returns to Normal. Changes within the
// cooldown window are suppressed. Caller holds the write lock.
func (dm *DegradationManager) adjustLevel() {
	now := dm.config.Clock.Now()
	if now.Sub(dm.lastLevelChange) < dm.config.CooldownPeriod {
		return
	}

	oldLevel := dm.currentLevel
	var newLevel DegradationLevel
	switch {
	case dm.circuitOpen && dm.memoryPressure:
		newLevel = LevelDisabled
	case dm.memoryPressure:
		newLevel = LevelMinimal
	case dm.circuitOpen:
		newLevel = LevelRelaxed
	default:
		newLevel = LevelNormal
	}

	if newLevel == oldLevel {
		return
	}

	dm.currentLevel = newLevel
	dm.lastLevelChange = now
	dm.config.Metrics.RecordDegradationLevel(dm.config.LimiterType, int(newLevel))

	var reason string
	switch {
	case dm.circuitOpen && dm.memoryPressure:
		reason = "circuit_open,memory_pressure"
	case dm.circuitOpen:
		reason = "circuit_open"
	case dm.memoryPressure:
		reason = "memory_pressure"
	default:
		reason = "recovery"
	}

	slog.Warn("degradation level changed",
		slog.String("limiter_type", dm.config.LimiterType),
		slog.String("previous_level", oldLevel.String()),
		slog.String("new_level", newLevel.String()),
		slog.String("reason", reason),
		slog.Bool("circuit_open", dm.circuitOpen),
		slog.Bool("memory_pressure", dm.memoryPressure),
	)
}

// DegradationStats is a point-in-time snapshot for monitoring.
type DegradationStats struct {
	// EffectiveLevel is what AdjustLimits uses, override included.
	EffectiveLevel DegradationLevel

	// InternalLevel is the auto-calculated level, override ignored.
	InternalLevel DegradationLevel

	ManualOverride  bool
	CircuitOpen     bool
	MemoryPressure  bool
	LastLevelChange time.Time
}

// Stats returns current degradation manager statistics.
func (dm *DegradationManager) Stats() DegradationStats {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	effective := dm.currentLevel
	if dm.manualOverride != nil {
		effective = *dm.manualOverride
	}

	return DegradationStats{
		EffectiveLevel:  effective,
		InternalLevel:   dm.currentLevel,
		ManualOverride:  dm.manualOverride != nil,
		CircuitOpen:     dm.circuitOpen,
		MemoryPressure:  dm.memoryPressure,
		LastLevelChange: dm.lastLevelChange,
	}
}
