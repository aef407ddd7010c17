package core

import "sync/atomic"

// The controller the command handlers act on, set by target code
var gpioController atomic.Pointer[Controller]

// SetController registers the controller used by the gpio_* commands
func SetController(c *Controller) {
	gpioController.Store(c)
}
