package probes

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/mem"

	"github.com/mfarlowe/picow-agent/internal/models"
)

// MemoryProbe reports the used fraction of physical memory.
type MemoryProbe struct {
	Logger zerolog.Logger
}

func (p *MemoryProbe) Name() string {
	return "memory"
}

func (p *MemoryProbe) Collect(ctx context.Context, status *models.DeviceStatus) {
	memStats, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		p.Logger.Warn().Err(err).Msg("Failed to retrieve memory statistics")
		return
	}

	status.Memory = &memStats.UsedPercent
}
