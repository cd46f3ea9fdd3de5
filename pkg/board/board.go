package board

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// resetCommandTimeout bounds the restart command itself, not the restart.
const resetCommandTimeout = 10 * time.Second

// Resetter triggers a controlled restart of the device. A successful call
// does not return control in any meaningful sense: the process is torn down
// by the init system shortly after.
type Resetter interface {
	Reset() error
}

// SystemResetter restarts the host through the init system, falling back to
// a plain reboot when systemctl is unavailable.
type SystemResetter struct {
	logger zerolog.Logger
}

// NewSystemResetter creates a SystemResetter.
func NewSystemResetter(logger zerolog.Logger) *SystemResetter {
	return &SystemResetter{
		logger: logger,
	}
}

// Reset asks the init system to reboot the device.
func (r *SystemResetter) Reset() error {
	r.logger.Info().Msg("Triggering device restart")

	if err := r.run("systemctl", "reboot"); err != nil {
		r.logger.Warn().Err(err).Msg("systemctl reboot failed, falling back to reboot")
		if err := r.run("reboot"); err != nil {
			return fmt.Errorf("failed to restart device: %v", err)
		}
	}
	return nil
}

func (r *SystemResetter) run(name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), resetCommandTimeout)
	defer cancel()

	var stderr bytes.Buffer
	command := exec.CommandContext(ctx, name, args...)
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("%s: %s", err, detail)
		}
		return err
	}
	return nil
}
