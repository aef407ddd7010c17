//go:build esp32

package main

import (
	"runtime/interrupt"

	"periph.io/x/conn/v3/gpio"

	"espgpio/core"
	"espgpio/pinio"
)

const (
	// gpioVector is the CPU interrupt line the GPIO source is routed to, a
	// level-triggered priority 1 line the runtime leaves free
	gpioVector = 9

	// bootButtonPin is the BOOT button of the dev board, active low
	bootButtonPin core.Pin = 0
)

// ctrl is read by the interrupt glue, which cannot capture variables
var ctrl *core.Controller

// handleGPIO forwards the CPU line to the controller's vector table.
// interrupt.New takes a constant line number, so the line is fixed here.
func handleGPIO(interrupt.Interrupt) {
	if !ctrl.Vectors().Dispatch(gpioVector) {
		// Unbound or masked: clear the status so the line drops
		ctrl.AckInterrupts()
	}
}

// setupInterrupts routes GPIO interrupts to gpioVector and reports BOOT
// button presses on the debug UART
func setupInterrupts(c *core.Controller) error {
	ctrl = c

	button, err := pinio.New(c, bootButtonPin)
	if err != nil {
		return err
	}
	if err := button.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return err
	}

	notify := pinio.NotifyPending(c, button)
	err = c.RegisterInterruptHandler(gpioVector, func(arg interface{}) {
		notify(arg)
		core.DebugAsync("[irq] gpio")
	}, nil)
	if err != nil {
		return err
	}
	interrupt.New(gpioVector, handleGPIO).Enable()

	go func() {
		for button.WaitForEdge(-1) {
			DebugPrintln("[main] BOOT pressed, GPIO0=" + button.Read().String())
		}
	}()
	return nil
}
