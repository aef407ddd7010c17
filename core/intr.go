package core

func (c *Controller) applyIntrType(pin Pin, t IntrType) {
	writeField(c.bus, pinReg(pin), FieldPinIntType, uint32(t))
}

// applyIntrEnable routes the pin interrupt to the calling core, or masks it
func (c *Controller) applyIntrEnable(pin Pin, on bool) {
	var ena uint32
	if on {
		ena = intEnaPro
		if c.currentCore() != 0 {
			ena = intEnaApp
		}
	}
	writeField(c.bus, pinReg(pin), FieldPinIntEna, ena)
}

func (c *Controller) applyOpenDrain(pin Pin, on bool) {
	writeField(c.bus, pinReg(pin), FieldPinPadDriver, boolBit(on))
}

func (c *Controller) applyWakeup(pin Pin, on bool) {
	writeField(c.bus, pinReg(pin), FieldPinWakeup, boolBit(on))
}

// SetInterruptType selects the trigger of pin
func (c *Controller) SetInterruptType(pin Pin, t IntrType) error {
	if !IsValid(pin) || t >= IntrMax {
		return pinErr("set interrupt type", pin, ErrInvalidArg)
	}
	return c.locked("set interrupt type", pin, func() error {
		c.applyIntrType(pin, t)
		return nil
	})
}

// InterruptEnable unmasks the pin interrupt for the core the caller runs on
func (c *Controller) InterruptEnable(pin Pin) error {
	if !IsValid(pin) {
		return pinErr("interrupt enable", pin, ErrInvalidArg)
	}
	return c.locked("interrupt enable", pin, func() error {
		c.applyIntrEnable(pin, true)
		return nil
	})
}

// InterruptDisable masks the pin interrupt on both cores
func (c *Controller) InterruptDisable(pin Pin) error {
	if !IsValid(pin) {
		return pinErr("interrupt disable", pin, ErrInvalidArg)
	}
	return c.locked("interrupt disable", pin, func() error {
		c.applyIntrEnable(pin, false)
		return nil
	})
}

// EnableWakeup lets a held level on pin wake the chip from light sleep.
// The wake-up latch only observes levels, so edge triggers are rejected.
func (c *Controller) EnableWakeup(pin Pin, t IntrType) error {
	if !IsValid(pin) || !t.IsLevel() {
		return pinErr("enable wakeup", pin, ErrInvalidArg)
	}
	return c.locked("enable wakeup", pin, func() error {
		c.applyIntrType(pin, t)
		c.applyWakeup(pin, true)
		return nil
	})
}

// DisableWakeup clears the wake enable of pin
func (c *Controller) DisableWakeup(pin Pin) error {
	if !IsValid(pin) {
		return pinErr("disable wakeup", pin, ErrInvalidArg)
	}
	return c.locked("disable wakeup", pin, func() error {
		c.applyWakeup(pin, false)
		return nil
	})
}

// PinState is a read-back of the per-pin interrupt configuration
type PinState struct {
	Intr       IntrType
	IntrEnable uint32 // raw INT_ENA field
	Wakeup     bool
	OpenDrain  bool
}

// State reads GPIO_PINn of pin
func (c *Controller) State(pin Pin) (PinState, error) {
	if !IsValid(pin) {
		return PinState{}, pinErr("state", pin, ErrInvalidArg)
	}
	v := c.bus.Load(pinReg(pin))
	return PinState{
		Intr:       IntrType(FieldPinIntType.Get(v)),
		IntrEnable: FieldPinIntEna.Get(v),
		Wakeup:     FieldPinWakeup.Get(v) != 0,
		OpenDrain:  FieldPinPadDriver.Get(v) != 0,
	}, nil
}

// AckInterrupts returns the pins with a latched interrupt and clears them
// through the status W1TC aliases. A GPIO interrupt handler calls it once per
// invocation; a level or edge that stays latched raises the line again. It
// takes no lock, so it is safe in interrupt context.
func (c *Controller) AckInterrupts() PinMask {
	lo := c.bus.Load(regStatus)
	hi := c.bus.Load(regStatus1)
	if lo != 0 {
		c.bus.Store(regStatusW1TC, lo)
	}
	if hi != 0 {
		c.bus.Store(regStatus1W1TC, hi)
	}
	return PinMask(lo) | PinMask(hi)<<32
}
