// Package serial opens the link between the host tool and busport firmware
package serial

import (
	"errors"
	"io"
)

// Port represents a serial port. Implementations: native serial
// (github.com/tarm/serial) and in-memory pipes for testing.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (ignored by USB CDC devices)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

var (
	ErrNoDevice    = errors.New("serial device not set")
	ErrInvalidBaud = errors.New("serial baud rate must be positive")
)

// DefaultConfig returns the default configuration for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100,
	}
}

// Validate checks the configuration before opening
func (c *Config) Validate() error {
	if c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		return ErrInvalidBaud
	}
	if c.ReadTimeout < 0 {
		c.ReadTimeout = 0
	}
	return nil
}
