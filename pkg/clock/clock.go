package clock

import (
	"sync/atomic"
	"time"
)

// Clock is the wall-clock source consumed by every timestamped operation.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time directly from the operating system.
type SystemClock struct{}

// NewSystemClock creates a new SystemClock instance.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// SyncedClock decorates another Clock with a correction offset measured
// against a network time source. The agent never sets the system clock
// (that would require privileges it may not have); instead the measured
// offset is applied to every reading.
type SyncedClock struct {
	base   Clock
	offset atomic.Int64 // nanoseconds
}

// NewSyncedClock creates a SyncedClock around the given base clock with a
// zero offset.
func NewSyncedClock(base Clock) *SyncedClock {
	return &SyncedClock{base: base}
}

// Now returns the base clock time corrected by the last measured offset.
func (c *SyncedClock) Now() time.Time {
	return c.base.Now().Add(time.Duration(c.offset.Load()))
}

// SetOffset records a new correction offset. Safe for concurrent use.
func (c *SyncedClock) SetOffset(offset time.Duration) {
	c.offset.Store(int64(offset))
}

// Offset returns the currently applied correction offset.
func (c *SyncedClock) Offset() time.Duration {
	return time.Duration(c.offset.Load())
}
