//go:build esp32

package main

import (
	"machine"
)

var (
	debugUART    *machine.UART
	debugEnabled bool
)

// InitDebugUART initializes UART2 on GPIO17 (TX) and GPIO16 (RX) for debugging.
// UART0 belongs to the host protocol.
func InitDebugUART() {
	debugUART = machine.UART2

	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO17,
		RX:       machine.GPIO16,
	})
	if err != nil {
		debugEnabled = false
		return
	}

	debugEnabled = true
	DebugPrintln("=== ESP32 debug UART ===")
}

// DebugPrintln writes a line to the debug UART
func DebugPrintln(s string) {
	if !debugEnabled || debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
