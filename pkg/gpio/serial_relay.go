package gpio

import (
	"fmt"

	"github.com/tarm/serial"

	"github.com/mfarlowe/picow-agent/internal/models"
)

// SerialRelayPin drives a channel of a serial-attached relay board. The
// board speaks the common four-byte frame protocol: 0xA0, channel, level,
// checksum (sum of the first three bytes, truncated).
type SerialRelayPin struct {
	port     string // serial port the relay board is connected to
	baudRate int    // baud rate for the serial communication
	channel  byte
}

// NewSerialRelayPin creates a Pin switching the given relay channel over the
// specified port and baud rate.
func NewSerialRelayPin(port string, baudRate int, channel byte) *SerialRelayPin {
	return &SerialRelayPin{
		port:     port,
		baudRate: baudRate,
		channel:  channel,
	}
}

// On closes the relay channel.
func (p *SerialRelayPin) On() error {
	return p.send(0x01)
}

// Off opens the relay channel.
func (p *SerialRelayPin) Off() error {
	return p.send(0x00)
}

func (p *SerialRelayPin) send(level byte) error {
	c := &serial.Config{Name: p.port, Baud: p.baudRate}
	s, err := serial.OpenPort(c)
	if err != nil {
		return fmt.Errorf("%w: failed to open relay port %s: %v", models.ErrStorage, p.port, err)
	}
	defer s.Close()

	if _, err := s.Write(relayFrame(p.channel, level)); err != nil {
		return fmt.Errorf("%w: failed to write relay command: %v", models.ErrStorage, err)
	}
	return nil
}

func relayFrame(channel, level byte) []byte {
	frame := []byte{0xA0, channel, level, 0}
	frame[3] = frame[0] + frame[1] + frame[2]
	return frame
}
