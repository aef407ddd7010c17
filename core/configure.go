package core

// Config describes a batch of pins to configure identically
type Config struct {
	Pins     PinMask  // pins to configure
	Mode     ModeFlag // ModeInput | ModeOutput | ModeOpenDrain
	PullUp   bool
	PullDown bool
	Intr     IntrType
}

// Configure applies cfg to every selected pin under a single lock hold, so the
// batch is atomic with respect to other configurators. It creates the
// controller lock if needed.
//
// Selected identifiers with no physical pad are skipped and returned in
// skipped; they are a warning, not an error. Validation happens before the
// first register write, so a rejected call leaves the hardware untouched.
func (c *Controller) Configure(cfg Config) (skipped PinMask, err error) {
	if err := c.Init(); err != nil {
		return 0, err
	}
	if cfg.Pins == 0 {
		return 0, &opError{op: "configure", msg: "empty pin mask", err: ErrInvalidArg}
	}
	if cfg.Mode&ModeOutput != 0 && cfg.Pins&InputOnlyMask != 0 {
		return 0, &opError{op: "configure", msg: "GPIO34-39 are input only", err: ErrInvalidArg}
	}
	if cfg.Intr >= IntrMax {
		return 0, &opError{op: "configure", msg: "interrupt type " + utoa(uint32(cfg.Intr)), err: ErrInvalidArg}
	}

	l := c.acquire()
	if l == nil {
		return 0, &opError{op: "configure", err: ErrNotInitialized}
	}
	defer l.Unlock()

	for pin := Pin(0); pin < MaxPinCount; pin++ {
		if !cfg.Pins.Has(pin) {
			continue
		}
		if !IsValid(pin) {
			skipped |= 1 << pin
			c.warnf("gpio configure: " + PinName(pin) + " does not exist, skipped")
			continue
		}
		c.applyPin(pin, cfg)
	}
	return skipped, nil
}

// applyPin writes the whole configuration of one pin; the caller holds the lock
func (c *Controller) applyPin(pin Pin, cfg Config) {
	c.applyInput(pin, cfg.Mode&ModeInput != 0)
	c.applyOpenDrain(pin, cfg.Mode&ModeOpenDrain != 0)
	c.applyOutput(pin, cfg.Mode&ModeOutput != 0)
	c.applyPull(pin, cfg.PullUp, cfg.PullDown)
	c.applyIntrType(pin, cfg.Intr)
	c.applyIntrEnable(pin, cfg.Intr != IntrDisable)
	writeField(c.bus, muxReg(pin), FieldMuxMCUSel, funcGPIO)
}
