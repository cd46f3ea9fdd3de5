package gpio

import "sync/atomic"

// Pin is a single digital control output. Implementations switch whatever
// the board wires to it: an onboard LED, or a MOSFET/relay driving a load.
type Pin interface {
	On() error
	Off() error
}

// MemoryPin is an in-process Pin for boards without a usable output. It only
// records the last requested level.
type MemoryPin struct {
	on atomic.Bool
}

// NewMemoryPin creates a new MemoryPin, initially off.
func NewMemoryPin() *MemoryPin {
	return &MemoryPin{}
}

// On sets the recorded level to active.
func (p *MemoryPin) On() error {
	p.on.Store(true)
	return nil
}

// Off sets the recorded level to inactive.
func (p *MemoryPin) Off() error {
	p.on.Store(false)
	return nil
}

// IsOn returns the last requested level.
func (p *MemoryPin) IsOn() bool {
	return p.on.Load()
}
