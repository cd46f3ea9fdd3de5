package gpio

import (
	"fmt"
	"strconv"

	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/pkg/file"
)

const sysfsGpioRoot = "/sys/class/gpio"

// SysfsPin drives a GPIO line through the kernel's sysfs interface.
type SysfsPin struct {
	number     int
	fileClient file.FileOperations
}

// NewSysfsPin exports GPIO line number (if not already exported), configures
// it as an output and returns a Pin driving it.
func NewSysfsPin(number int, fileClient file.FileOperations) (*SysfsPin, error) {
	p := &SysfsPin{
		number:     number,
		fileClient: fileClient,
	}
	if err := p.export(); err != nil {
		return nil, err
	}
	return p, nil
}

// On drives the line high.
func (p *SysfsPin) On() error {
	return p.write("1")
}

// Off drives the line low.
func (p *SysfsPin) Off() error {
	return p.write("0")
}

func (p *SysfsPin) export() error {
	exists, err := p.fileClient.IsFileExists(p.valuePath())
	if err != nil {
		return fmt.Errorf("%w: failed to probe gpio %d: %v", models.ErrStorage, p.number, err)
	}
	if !exists {
		// Exporting an already-exported line fails with EBUSY, hence the probe.
		if err := p.fileClient.WriteFile(sysfsGpioRoot+"/export", strconv.Itoa(p.number)); err != nil {
			return fmt.Errorf("%w: failed to export gpio %d: %v", models.ErrStorage, p.number, err)
		}
	}

	if err := p.fileClient.WriteFile(p.pinPath("direction"), "out"); err != nil {
		return fmt.Errorf("%w: failed to set gpio %d direction: %v", models.ErrStorage, p.number, err)
	}
	return nil
}

func (p *SysfsPin) write(level string) error {
	if err := p.fileClient.WriteFile(p.valuePath(), level); err != nil {
		return fmt.Errorf("%w: failed to drive gpio %d: %v", models.ErrStorage, p.number, err)
	}
	return nil
}

func (p *SysfsPin) valuePath() string {
	return p.pinPath("value")
}

func (p *SysfsPin) pinPath(attr string) string {
	return fmt.Sprintf("%s/gpio%d/%s", sysfsGpioRoot, p.number, attr)
}
