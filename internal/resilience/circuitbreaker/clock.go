package circuitbreaker

import "time"

// Clock abstracts time lookup so that recovery-timeout behavior can be
// tested with a controlled clock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is a Clock backed by the system time.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}
