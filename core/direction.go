package core

// applyInput sets or clears the pad input buffer (IO_MUX FUN_IE)
func (c *Controller) applyInput(pin Pin, on bool) {
	writeField(c.bus, muxReg(pin), FieldMuxFunIE, boolBit(on))
}

// applyOutput sets or clears the output driver enable through the W1TS/W1TC alias
func (c *Controller) applyOutput(pin Pin, on bool) {
	b, bit := bankBit(pin)
	if on {
		c.bus.Store(enableBanks[b].w1ts, bit)
	} else {
		c.bus.Store(enableBanks[b].w1tc, bit)
	}
}

// applyDirection applies one of the four direction policies
func (c *Controller) applyDirection(pin Pin, dir Direction) {
	switch dir {
	case DirInput:
		c.applyInput(pin, true)
		c.applyOutput(pin, false)
	case DirOutput:
		c.applyInput(pin, false)
		c.applyOutput(pin, true)
	case DirInputOutput:
		c.applyInput(pin, true)
		c.applyOutput(pin, true)
	case DirDisable:
		c.applyInput(pin, false)
		c.applyOutput(pin, false)
	}
}

// InputEnable turns on the input buffer of pin
func (c *Controller) InputEnable(pin Pin) error {
	if !IsValid(pin) {
		return pinErr("input enable", pin, ErrInvalidArg)
	}
	return c.locked("input enable", pin, func() error {
		c.applyInput(pin, true)
		return nil
	})
}

// InputDisable turns off the input buffer of pin
func (c *Controller) InputDisable(pin Pin) error {
	if !IsValid(pin) {
		return pinErr("input disable", pin, ErrInvalidArg)
	}
	return c.locked("input disable", pin, func() error {
		c.applyInput(pin, false)
		return nil
	})
}

// OutputEnable turns on the output driver of pin. GPIO34-39 have no driver.
func (c *Controller) OutputEnable(pin Pin) error {
	if IsInputOnly(pin) || !IsValid(pin) {
		return pinErr("output enable", pin, ErrInvalidArg)
	}
	c.applyOutput(pin, true)
	return nil
}

// OutputDisable turns off the output driver of pin
func (c *Controller) OutputDisable(pin Pin) error {
	if !IsValid(pin) {
		return pinErr("output disable", pin, ErrInvalidArg)
	}
	c.applyOutput(pin, false)
	return nil
}

// SetDirection applies dir to pin as one locked sequence
func (c *Controller) SetDirection(pin Pin, dir Direction) error {
	if !IsValid(pin) {
		return pinErr("set direction", pin, ErrInvalidArg)
	}
	switch dir {
	case DirDisable, DirInput:
	case DirOutput, DirInputOutput:
		if IsInputOnly(pin) {
			return pinErr("set direction", pin, ErrInvalidArg)
		}
	default:
		return pinErr("set direction", pin, ErrInvalidArg)
	}
	return c.locked("set direction", pin, func() error {
		c.applyDirection(pin, dir)
		return nil
	})
}

// SetLevel drives pin high (level != 0) or low
func (c *Controller) SetLevel(pin Pin, level uint32) error {
	if !IsValid(pin) {
		return pinErr("set level", pin, ErrInvalidArg)
	}
	b, bit := bankBit(pin)
	if level != 0 {
		c.bus.Store(outBanks[b].w1ts, bit)
	} else {
		c.bus.Store(outBanks[b].w1tc, bit)
	}
	return nil
}

// GetLevel returns the input level of pin (0 or 1).
//
// The pin is not validated: an absent pin reads whatever its IN bit holds and
// identifiers of 64 and above read 0.
func (c *Controller) GetLevel(pin Pin) uint32 {
	b, bit := bankBit(pin)
	if c.bus.Load(inRegs[b])&bit != 0 {
		return 1
	}
	return 0
}

// Direction reads back the buffer enables of pin
func (c *Controller) Direction(pin Pin) (Direction, error) {
	if !IsValid(pin) {
		return DirDisable, pinErr("direction", pin, ErrInvalidArg)
	}
	in := readField(c.bus, muxReg(pin), FieldMuxFunIE) != 0
	b, bit := bankBit(pin)
	enable := uint32(regEnable)
	if b == 1 {
		enable = regEnable1
	}
	out := c.bus.Load(enable)&bit != 0
	switch {
	case in && out:
		return DirInputOutput, nil
	case in:
		return DirInput, nil
	case out:
		return DirOutput, nil
	}
	return DirDisable, nil
}
