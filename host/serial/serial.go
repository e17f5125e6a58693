// Package serial opens the link the firmware streams bus events over.
package serial

import (
	"errors"
	"io"
	"time"
)

// Port is a serial link. The monitor only reads from it, but the port stays
// writable so a future command channel can share it.
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread input and unsent output
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; USB CDC ignores it, a UART bridge does not
	Baud int

	// Read timeout (0 = blocking)
	ReadTimeout time.Duration
}

var (
	errNoDevice = errors.New("serial: device path is empty")
	errBadBaud  = errors.New("serial: baud rate must be positive")
)

// DefaultConfig returns the settings the firmware console uses
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Validate checks the configuration before the port is opened
func (c *Config) Validate() error {
	if c.Device == "" {
		return errNoDevice
	}
	if c.Baud <= 0 {
		return errBadBaud
	}
	return nil
}
