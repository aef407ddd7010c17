package core

import (
	"errors"

	"espgpio/protocol"
)

// Operation codes carried in gpio_result
const (
	OpConfigure uint8 = iota + 1
	OpSetDirection
	OpSetPull
	OpSetLevel
	OpGetLevel
	OpSetIntr
	OpIntrEnable
	OpWakeup
)

// Result codes carried in gpio_result
const (
	ResultOK uint8 = iota
	ResultInvalidArg
	ResultNotInitialized
	ResultFailed
)

// ErrFailed stands for a firmware error that has no code of its own
var ErrFailed = errors.New("gpio operation failed")

// ResultCode maps an operation error onto its wire code
func ResultCode(err error) uint8 {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrInvalidArg):
		return ResultInvalidArg
	case errors.Is(err, ErrNotInitialized):
		return ResultNotInitialized
	default:
		return ResultFailed
	}
}

// ResultError maps a wire code back onto the sentinel error
func ResultError(code uint8) error {
	switch code {
	case ResultOK:
		return nil
	case ResultInvalidArg:
		return ErrInvalidArg
	case ResultNotInitialized:
		return ErrNotInitialized
	default:
		return ErrFailed
	}
}

// InitGPIOCommands registers the gpio_* messages and the pin constants
func InitGPIOCommands() {
	RegisterCommand("gpio_config", "mask_lo=%u mask_hi=%u mode=%c pull_up=%c pull_down=%c intr=%c", handleGPIOConfig)
	RegisterCommand("gpio_set_direction", "pin=%c mode=%c", handleGPIOSetDirection)
	RegisterCommand("gpio_set_pull", "pin=%c mode=%c", handleGPIOSetPull)
	RegisterCommand("gpio_set_level", "pin=%c value=%c", handleGPIOSetLevel)
	RegisterCommand("gpio_get_level", "pin=%c", handleGPIOGetLevel)
	RegisterCommand("gpio_set_intr", "pin=%c type=%c", handleGPIOSetIntr)
	RegisterCommand("gpio_intr_enable", "pin=%c enable=%c", handleGPIOIntrEnable)
	RegisterCommand("gpio_wakeup", "pin=%c type=%c enable=%c", handleGPIOWakeup)
	RegisterResponse("gpio_result", "op=%c code=%c value=%u")

	RegisterConstant("GPIO_PIN_COUNT", uint32(MaxPinCount))
	RegisterEnumeration("pin", pinNames())
}

// pinNames lists "gpioN" at index N with holes for absent pads
func pinNames() []string {
	names := make([]string, MaxPinCount)
	for p := Pin(0); p < MaxPinCount; p++ {
		if IsValid(p) {
			names[p] = PinName(p)
		}
	}
	return names
}

// decodeArgs reads n unsigned arguments
func decodeArgs(data *[]byte, n int) ([]uint32, error) {
	args := make([]uint32, n)
	for i := range args {
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func sendResult(op uint8, err error, value uint32) error {
	return SendResponse("gpio_result", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(op))
		protocol.EncodeVLQUint(output, uint32(ResultCode(err)))
		protocol.EncodeVLQUint(output, value)
	})
}

// withController decodes n arguments and runs fn against the registered
// controller, answering with gpio_result. Decoding errors abort the frame.
func withController(data *[]byte, op uint8, n int, fn func(c *Controller, args []uint32) (uint32, error)) error {
	args, err := decodeArgs(data, n)
	if err != nil {
		return err
	}
	c := gpioController.Load()
	if c == nil {
		return sendResult(op, ErrNotInitialized, 0)
	}
	value, err := fn(c, args)
	if err != nil {
		DebugPrintln("[gpio] " + err.Error())
	}
	return sendResult(op, err, value)
}

func handleGPIOConfig(data *[]byte) error {
	return withController(data, OpConfigure, 6, func(c *Controller, a []uint32) (uint32, error) {
		if a[2] > uint32(ModeInput|ModeOutput|ModeOpenDrain) || a[5] >= uint32(IntrMax) {
			return 0, &opError{op: "configure", msg: "mode or interrupt type out of range", err: ErrInvalidArg}
		}
		skipped, err := c.Configure(Config{
			Pins:     PinMask(a[0]) | PinMask(a[1])<<32,
			Mode:     ModeFlag(a[2]),
			PullUp:   a[3] != 0,
			PullDown: a[4] != 0,
			Intr:     IntrType(a[5]),
		})
		// Absent pads all sit below GPIO32
		return uint32(skipped), err
	})
}

func handleGPIOSetDirection(data *[]byte) error {
	return withController(data, OpSetDirection, 2, func(c *Controller, a []uint32) (uint32, error) {
		if a[1] > uint32(DirInputOutput) {
			return 0, pinErr("set direction", Pin(a[0]), ErrInvalidArg)
		}
		return 0, c.SetDirection(Pin(a[0]), Direction(a[1]))
	})
}

func handleGPIOSetPull(data *[]byte) error {
	return withController(data, OpSetPull, 2, func(c *Controller, a []uint32) (uint32, error) {
		if a[1] > uint32(PullUpDown) {
			return 0, pinErr("set pull", Pin(a[0]), ErrInvalidArg)
		}
		return 0, c.SetPullMode(Pin(a[0]), PullMode(a[1]))
	})
}

func handleGPIOSetLevel(data *[]byte) error {
	return withController(data, OpSetLevel, 2, func(c *Controller, a []uint32) (uint32, error) {
		return 0, c.SetLevel(Pin(a[0]), a[1])
	})
}

// handleGPIOGetLevel validates the pin: GetLevel itself does not, but a
// remote caller gets an error for a pad that does not exist
func handleGPIOGetLevel(data *[]byte) error {
	return withController(data, OpGetLevel, 1, func(c *Controller, a []uint32) (uint32, error) {
		pin := Pin(a[0])
		if !IsValid(pin) {
			return 0, pinErr("get level", pin, ErrInvalidArg)
		}
		return c.GetLevel(pin), nil
	})
}

func handleGPIOSetIntr(data *[]byte) error {
	return withController(data, OpSetIntr, 2, func(c *Controller, a []uint32) (uint32, error) {
		if a[1] >= uint32(IntrMax) {
			return 0, pinErr("set interrupt type", Pin(a[0]), ErrInvalidArg)
		}
		return 0, c.SetInterruptType(Pin(a[0]), IntrType(a[1]))
	})
}

func handleGPIOIntrEnable(data *[]byte) error {
	return withController(data, OpIntrEnable, 2, func(c *Controller, a []uint32) (uint32, error) {
		if a[1] != 0 {
			return 0, c.InterruptEnable(Pin(a[0]))
		}
		return 0, c.InterruptDisable(Pin(a[0]))
	})
}

func handleGPIOWakeup(data *[]byte) error {
	return withController(data, OpWakeup, 3, func(c *Controller, a []uint32) (uint32, error) {
		if a[2] == 0 {
			return 0, c.DisableWakeup(Pin(a[0]))
		}
		if a[1] >= uint32(IntrMax) {
			return 0, pinErr("enable wakeup", Pin(a[0]), ErrInvalidArg)
		}
		return 0, c.EnableWakeup(Pin(a[0]), IntrType(a[1]))
	})
}
