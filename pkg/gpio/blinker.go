package gpio

import (
	"time"

	"github.com/rs/zerolog"
)

// UpdateNotice is the long-short-long pattern played before a new image is
// written, giving an observer a moment to pull power before the restart.
var UpdateNotice = []time.Duration{
	600 * time.Millisecond,
	200 * time.Millisecond,
	600 * time.Millisecond,
}

// patternGap separates the steps of a multi-duration pattern.
const patternGap = 200 * time.Millisecond

// Blinker plays attention patterns on a Pin. Patterns are best effort: a
// failing output never aborts the operation that asked for the signal.
type Blinker struct {
	pin    Pin
	logger zerolog.Logger
}

// NewBlinker creates a Blinker driving pin.
func NewBlinker(pin Pin, logger zerolog.Logger) *Blinker {
	return &Blinker{
		pin:    pin,
		logger: logger,
	}
}

// Flash turns the pin on and off the given number of times, holding each
// level for interval. The pin is left off.
func (b *Blinker) Flash(times int, interval time.Duration) {
	for i := 0; i < times; i++ {
		b.set(true)
		time.Sleep(interval)
		b.set(false)
		time.Sleep(interval)
	}
}

// Pattern holds the pin on once per duration, in order. The pin is left off.
func (b *Blinker) Pattern(durations ...time.Duration) {
	for i, d := range durations {
		if i > 0 {
			time.Sleep(patternGap)
		}
		b.set(true)
		time.Sleep(d)
		b.set(false)
	}
}

func (b *Blinker) set(on bool) {
	var err error
	if on {
		err = b.pin.On()
	} else {
		err = b.pin.Off()
	}
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to drive status output")
	}
}
