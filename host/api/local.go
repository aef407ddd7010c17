package api

import "espgpio/core"

// Local serves a controller in the same process, such as one over a SimBus
type Local struct {
	C *core.Controller
}

func (l Local) Configure(cfg core.Config) (core.PinMask, error) {
	return l.C.Configure(cfg)
}

func (l Local) SetDirection(pin core.Pin, dir core.Direction) error {
	return l.C.SetDirection(pin, dir)
}

func (l Local) SetPullMode(pin core.Pin, mode core.PullMode) error {
	return l.C.SetPullMode(pin, mode)
}

func (l Local) SetLevel(pin core.Pin, level uint32) error {
	return l.C.SetLevel(pin, level)
}

// GetLevel rejects absent pads, which the controller itself does not check
func (l Local) GetLevel(pin core.Pin) (uint32, error) {
	if !core.IsValid(pin) {
		return 0, &core.PinError{Op: "get level", Pin: pin, Err: core.ErrInvalidArg}
	}
	return l.C.GetLevel(pin), nil
}

func (l Local) SetInterruptType(pin core.Pin, t core.IntrType) error {
	return l.C.SetInterruptType(pin, t)
}

func (l Local) SetInterruptEnabled(pin core.Pin, enable bool) error {
	if enable {
		return l.C.InterruptEnable(pin)
	}
	return l.C.InterruptDisable(pin)
}

func (l Local) EnableWakeup(pin core.Pin, t core.IntrType) error {
	return l.C.EnableWakeup(pin, t)
}

func (l Local) DisableWakeup(pin core.Pin) error {
	return l.C.DisableWakeup(pin)
}
