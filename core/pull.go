package core

// applyPull writes the pull-up and pull-down enables of a pad
func (c *Controller) applyPull(pin Pin, up, down bool) {
	reg := muxReg(pin)
	v := c.bus.Load(reg)
	v = FieldMuxFunWPU.Set(v, boolBit(up))
	v = FieldMuxFunWPD.Set(v, boolBit(down))
	c.bus.Store(reg, v)
}

// SetPullMode configures the internal pull resistors of pin
func (c *Controller) SetPullMode(pin Pin, mode PullMode) error {
	if !IsValid(pin) {
		return pinErr("set pull", pin, ErrInvalidArg)
	}
	return c.locked("set pull", pin, func() error {
		switch mode {
		case PullUp:
			c.applyPull(pin, true, false)
		case PullDown:
			c.applyPull(pin, false, true)
		case PullUpDown:
			c.applyPull(pin, true, true)
		case PullFloating:
			c.applyPull(pin, false, false)
		default:
			return pinErr("set pull", pin, ErrInvalidArg)
		}
		return nil
	})
}

// PullMode reads back the pull resistor configuration of pin
func (c *Controller) PullMode(pin Pin) (PullMode, error) {
	if !IsValid(pin) {
		return PullFloating, pinErr("pull mode", pin, ErrInvalidArg)
	}
	v := c.bus.Load(muxReg(pin))
	up, down := FieldMuxFunWPU.Get(v) != 0, FieldMuxFunWPD.Get(v) != 0
	switch {
	case up && down:
		return PullUpDown, nil
	case up:
		return PullUp, nil
	case down:
		return PullDown, nil
	}
	return PullFloating, nil
}
