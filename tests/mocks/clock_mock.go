package mocks

import "time"

// FixedClock implements clock.Clock with a frozen instant for tests.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}
