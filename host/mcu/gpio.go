package mcu

import (
	"fmt"

	"espgpio/core"
)

// gpio runs one gpio_* command and maps its gpio_result onto the core
// sentinel errors
func (m *MCU) gpio(op uint8, name string, args ...uint32) (uint32, error) {
	resp, err := m.Call(name, "gpio_result", args...)
	if err != nil {
		return 0, err
	}
	if got := resp.Args["op"]; got != uint32(op) {
		return 0, fmt.Errorf("%s: answered for op %d", name, got)
	}
	if err := core.ResultError(uint8(resp.Args["code"])); err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return resp.Args["value"], nil
}

func flag(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Configure applies cfg on the firmware and returns the absent pads it skipped
func (m *MCU) Configure(cfg core.Config) (core.PinMask, error) {
	skipped, err := m.gpio(core.OpConfigure, "gpio_config",
		uint32(cfg.Pins), uint32(cfg.Pins>>32),
		uint32(cfg.Mode), flag(cfg.PullUp), flag(cfg.PullDown), uint32(cfg.Intr))
	return core.PinMask(skipped), err
}

// SetDirection sets the pad buffers of pin
func (m *MCU) SetDirection(pin core.Pin, dir core.Direction) error {
	_, err := m.gpio(core.OpSetDirection, "gpio_set_direction", uint32(pin), uint32(dir))
	return err
}

// SetPullMode sets the pull resistors of pin
func (m *MCU) SetPullMode(pin core.Pin, mode core.PullMode) error {
	_, err := m.gpio(core.OpSetPull, "gpio_set_pull", uint32(pin), uint32(mode))
	return err
}

// SetLevel drives pin; any non-zero level is high
func (m *MCU) SetLevel(pin core.Pin, level uint32) error {
	_, err := m.gpio(core.OpSetLevel, "gpio_set_level", uint32(pin), flag(level != 0))
	return err
}

// GetLevel samples pin
func (m *MCU) GetLevel(pin core.Pin) (uint32, error) {
	return m.gpio(core.OpGetLevel, "gpio_get_level", uint32(pin))
}

// SetInterruptType sets the trigger of pin
func (m *MCU) SetInterruptType(pin core.Pin, t core.IntrType) error {
	_, err := m.gpio(core.OpSetIntr, "gpio_set_intr", uint32(pin), uint32(t))
	return err
}

// SetInterruptEnabled routes pin's interrupt to the firmware's core or removes it
func (m *MCU) SetInterruptEnabled(pin core.Pin, enable bool) error {
	_, err := m.gpio(core.OpIntrEnable, "gpio_intr_enable", uint32(pin), flag(enable))
	return err
}

// EnableWakeup makes pin a light-sleep wake source; t must be a level trigger
func (m *MCU) EnableWakeup(pin core.Pin, t core.IntrType) error {
	_, err := m.gpio(core.OpWakeup, "gpio_wakeup", uint32(pin), uint32(t), 1)
	return err
}

// DisableWakeup removes pin from the wake sources
func (m *MCU) DisableWakeup(pin core.Pin) error {
	_, err := m.gpio(core.OpWakeup, "gpio_wakeup", uint32(pin), 0, 0)
	return err
}
