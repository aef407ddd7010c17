package serial

import (
	"io"
	"time"
)

// Port is a byte stream to the ESP32 UART. Tests substitute a net.Pipe end.
type Port interface {
	io.ReadWriteCloser

	// Flush discards data not yet read or transmitted
	Flush() error
}

// DefaultBaud is the ESP32 ROM and firmware console rate
const DefaultBaud = 115200

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	Baud int

	// ReadTimeout bounds a single Read. Zero blocks.
	ReadTimeout time.Duration
}

// DefaultConfig returns the configuration the firmware's UART0 expects
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}
