package probes

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"

	"github.com/mfarlowe/picow-agent/internal/models"
)

// CPUProbe reports CPU utilization across all cores.
type CPUProbe struct {
	Logger zerolog.Logger
}

func (p *CPUProbe) Name() string {
	return "cpu"
}

func (p *CPUProbe) Collect(ctx context.Context, status *models.DeviceStatus) {
	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		p.Logger.Warn().Err(err).Msg("Failed to get CPU usage")
		return
	}
	if len(percentages) == 0 {
		p.Logger.Warn().Msg("CPU usage data is empty")
		return
	}

	status.CPUUsage = &percentages[0]
}
