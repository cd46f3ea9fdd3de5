package probes

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/host"

	"github.com/mfarlowe/picow-agent/internal/models"
)

// UptimeProbe reports how long the host has been up, in seconds.
type UptimeProbe struct {
	Logger zerolog.Logger
}

func (p *UptimeProbe) Name() string {
	return "uptime"
}

func (p *UptimeProbe) Collect(ctx context.Context, status *models.DeviceStatus) {
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		p.Logger.Warn().Err(err).Msg("Failed to retrieve uptime")
		return
	}

	status.UptimeSeconds = &uptime
}
