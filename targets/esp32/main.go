//go:build esp32

package main

import (
	"machine"
	"runtime"
	"time"

	"espgpio/core"
)

// motionWakePin carries the accelerometer's INT1 line
const motionWakePin core.Pin = 27

func main() {
	InitDebugUART()
	core.SetDebugWriter(DebugPrintln)
	core.SetDebugEnabled(debugEnabled)
	core.InitAsyncDebug()

	// UART0 is the protocol link on the USB bridge
	uart := machine.UART0
	if err := uart.Configure(machine.UARTConfig{BaudRate: 115200}); err != nil {
		return
	}

	// identify first, so the bootstrap ids are 0 and 1
	core.InitCoreCommands()
	core.InitGPIOCommands()
	core.RegisterConstant("MCU", "esp32")
	core.GetGlobalDictionary().SetBuildVersions("tinygo " + runtime.Version())

	c, err := core.New(core.MMIO, core.WithDebugWriter(DebugPrintln))
	if err != nil {
		DebugPrintln("[main] gpio controller: " + err.Error())
		return
	}
	core.SetController(c)

	if err := setupInterrupts(c); err != nil {
		DebugPrintln("[main] gpio interrupts disabled: " + err.Error())
	}
	if err := setupMotionWake(c, motionWakePin); err != nil {
		DebugPrintln("[main] motion wake disabled: " + err.Error())
	}

	// Render the dictionary before the host asks for it
	core.GetGlobalDictionary().BuildDictionary()

	srv := core.NewServer(uart)
	srv.Transport().SetResetCallback(func() {
		DebugPrintln("[main] host reset")
	})
	for {
		if err := srv.Serve(); err != nil {
			DebugPrintln("[main] serve: " + err.Error())
			time.Sleep(10 * time.Millisecond)
		}
	}
}
