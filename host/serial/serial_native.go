//go:build !wasm

package serial

import (
	"errors"
	"fmt"

	"github.com/tarm/serial"
)

// ErrNoDevice is returned by Open when the config names no device
var ErrNoDevice = errors.New("no serial device configured")

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil || cfg.Device == "" {
		return nil, ErrNoDevice
	}
	baud := cfg.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{port: port}, nil
}

// Read reads data from the serial port. A read timeout surfaces as io.EOF.
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	return p.port.Close()
}

// Flush discards buffered input and output, dropping boot chatter the ROM
// printed before the firmware took over the UART
func (p *NativePort) Flush() error {
	return p.port.Flush()
}
