// Package profiles keeps named pin configurations on the host so a board can
// be brought to a known state with one command.
package profiles

import (
	"fmt"

	"espgpio/core"
)

// Profile is the JSON form of a core.Config
type Profile struct {
	Description string   `json:"description,omitempty"`
	Pins        []uint32 `json:"pins"`
	// Mode lists "input", "output" and "open_drain". Empty means input;
	// "disabled" alone turns the pins off.
	Mode     []string `json:"mode,omitempty"`
	PullUp   bool     `json:"pull_up,omitempty"`
	PullDown bool     `json:"pull_down,omitempty"`
	// Intr is an interrupt type name such as "negedge"; empty disables
	Intr string `json:"intr,omitempty"`
}

var modeNames = map[string]core.ModeFlag{
	"disabled":   0,
	"input":      core.ModeInput,
	"output":     core.ModeOutput,
	"open_drain": core.ModeOpenDrain,
}

// Config converts p for Controller.Configure. Pin validity is left to the
// controller, which skips absent pads.
func (p Profile) Config() (core.Config, error) {
	var cfg core.Config
	if len(p.Pins) == 0 {
		return cfg, fmt.Errorf("profile selects no pins: %w", core.ErrInvalidArg)
	}
	for _, pin := range p.Pins {
		if pin >= core.MaxPinCount {
			return cfg, fmt.Errorf("pin %d out of range: %w", pin, core.ErrInvalidArg)
		}
		cfg.Pins |= core.MaskOf(core.Pin(pin))
	}
	if len(p.Mode) == 0 {
		cfg.Mode = core.ModeInput
	}
	for _, m := range p.Mode {
		flag, ok := modeNames[m]
		if !ok {
			return cfg, fmt.Errorf("unknown mode %q: %w", m, core.ErrInvalidArg)
		}
		cfg.Mode |= flag
	}
	if p.Intr != "" {
		t, ok := core.ParseIntrType(p.Intr)
		if !ok {
			return cfg, fmt.Errorf("unknown interrupt type %q: %w", p.Intr, core.ErrInvalidArg)
		}
		cfg.Intr = t
	}
	cfg.PullUp = p.PullUp
	cfg.PullDown = p.PullDown
	return cfg, nil
}

// FromConfig is the inverse of Profile.Config
func FromConfig(cfg core.Config) Profile {
	p := Profile{PullUp: cfg.PullUp, PullDown: cfg.PullDown}
	for _, pin := range cfg.Pins.Pins() {
		p.Pins = append(p.Pins, uint32(pin))
	}
	for _, name := range []string{"input", "output", "open_drain"} {
		if cfg.Mode&modeNames[name] != 0 {
			p.Mode = append(p.Mode, name)
		}
	}
	if cfg.Mode == 0 {
		p.Mode = []string{"disabled"}
	}
	if cfg.Intr != core.IntrDisable {
		p.Intr = cfg.Intr.String()
	}
	return p
}
