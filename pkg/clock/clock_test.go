package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// stubClock returns a fixed instant, standing in for the system clock.
type stubClock struct {
	t time.Time
}

func (c stubClock) Now() time.Time {
	return c.t
}

func TestSyncedClockStartsWithZeroOffset(t *testing.T) {
	base := stubClock{t: time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)}
	clk := NewSyncedClock(base)

	assert.Equal(t, time.Duration(0), clk.Offset())
	assert.Equal(t, base.t, clk.Now())
}

func TestSyncedClockAppliesOffset(t *testing.T) {
	base := stubClock{t: time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)}
	clk := NewSyncedClock(base)

	clk.SetOffset(90 * time.Second)
	assert.Equal(t, base.t.Add(90*time.Second), clk.Now())
	assert.Equal(t, 90*time.Second, clk.Offset())

	// A negative correction pulls readings backwards
	clk.SetOffset(-2 * time.Minute)
	assert.Equal(t, base.t.Add(-2*time.Minute), clk.Now())
}

func TestSyncedClockReplacesOffsetNotAccumulates(t *testing.T) {
	base := stubClock{t: time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)}
	clk := NewSyncedClock(base)

	clk.SetOffset(10 * time.Second)
	clk.SetOffset(3 * time.Second)

	assert.Equal(t, base.t.Add(3*time.Second), clk.Now())
}

func TestSystemClockTracksWallTime(t *testing.T) {
	clk := NewSystemClock()

	before := time.Now()
	now := clk.Now()
	after := time.Now()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}
