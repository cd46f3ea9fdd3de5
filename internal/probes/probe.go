package probes

import (
	"context"

	"github.com/mfarlowe/picow-agent/internal/models"
)

// Probe reads one system measurement into a status report. Each probe fills
// only its own field, so distinct probes can run concurrently on the same
// report without coordination.
type Probe interface {
	Name() string
	Collect(ctx context.Context, status *models.DeviceStatus)
}

// Registry manages the available probes keyed by name.
type Registry struct {
	probes map[string]Probe
}

// NewRegistry creates an empty probe registry.
func NewRegistry() *Registry {
	return &Registry{
		probes: make(map[string]Probe),
	}
}

// Register adds a probe to the registry.
func (r *Registry) Register(probe Probe) {
	r.probes[probe.Name()] = probe
}

// Probes returns all registered probes.
func (r *Registry) Probes() map[string]Probe {
	return r.probes
}
