//go:build esp32

// Motion wake: an ADXL345 on I2C0 (SDA=GPIO21, SCL=GPIO22) raises INT1 while
// it sees activity, and INT1 is a high-level wake source of the chip.

package main

import (
	"machine"

	"tinygo.org/x/drivers/adxl345"

	"espgpio/core"
)

const (
	adxl345Addr = 0x53 // SDO low

	adxlThreshAct   = 0x24
	adxlActInactCtl = 0x27
	adxlIntEnable   = 0x2E
	adxlIntMap      = 0x2F
	adxlIntSource   = 0x30

	adxlIntActivity = 0x10

	// 62.5 mg per LSB
	activityThreshold = 16
)

var accel adxl345.Device

// setupMotionWake configures the accelerometer's activity interrupt and
// makes intPin a wake source
func setupMotionWake(c *core.Controller, intPin core.Pin) error {
	bus := machine.I2C0
	if err := bus.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.GPIO21,
		SCL:       machine.GPIO22,
	}); err != nil {
		return err
	}

	accel = adxl345.New(bus)
	accel.Address = adxl345Addr
	accel.Configure()
	accel.SetRate(adxl345.RATE_100HZ)
	accel.SetRange(adxl345.RANGE_2G)

	writes := [][2]byte{
		{adxlThreshAct, activityThreshold},
		// AC coupled activity on all axes
		{adxlActInactCtl, 0xF0},
		// Everything on INT1
		{adxlIntMap, 0x00},
		{adxlIntEnable, adxlIntActivity},
	}
	for _, w := range writes {
		if err := bus.Tx(adxl345Addr, w[:], nil); err != nil {
			return err
		}
	}
	clearMotion(bus)

	// INT1 is push-pull, active high
	if err := c.SetDirection(intPin, core.DirInput); err != nil {
		return err
	}
	if err := c.SetPullMode(intPin, core.PullDown); err != nil {
		return err
	}
	return c.EnableWakeup(intPin, core.IntrHighLevel)
}

// clearMotion reads INT_SOURCE, which releases INT1
func clearMotion(bus *machine.I2C) byte {
	var src [1]byte
	if err := bus.Tx(adxl345Addr, []byte{adxlIntSource}, src[:]); err != nil {
		return 0
	}
	return src[0]
}
