package core

// Pin identifies a logical GPIO line (GPIO0..GPIO39)
type Pin uint32

// PinMask selects pins, one bit per identifier (bit n = GPIOn)
type PinMask uint64

const (
	// MaxPinCount is the number of pin identifiers, including absent ones
	MaxPinCount = 40

	// FirstInputOnlyPin starts the range of pins without an output driver (GPIO34-39)
	FirstInputOnlyPin Pin = 34

	// InputOnlyMask covers GPIO34-39
	InputOnlyMask PinMask = 0x3F << 34
)

// pinMuxReg maps each identifier to its IO_MUX register; 0 means the pad is not bonded out.
// The IO_MUX block is not ordered by GPIO number.
var pinMuxReg = [MaxPinCount]uint32{
	ioMuxBase + 0x44, // GPIO0
	ioMuxBase + 0x88, // GPIO1 (U0TXD)
	ioMuxBase + 0x40, // GPIO2
	ioMuxBase + 0x84, // GPIO3 (U0RXD)
	ioMuxBase + 0x48, // GPIO4
	ioMuxBase + 0x6C, // GPIO5
	ioMuxBase + 0x60, // GPIO6 (SD_CLK)
	ioMuxBase + 0x64, // GPIO7 (SD_DATA0)
	ioMuxBase + 0x68, // GPIO8 (SD_DATA1)
	ioMuxBase + 0x54, // GPIO9 (SD_DATA2)
	ioMuxBase + 0x58, // GPIO10 (SD_DATA3)
	ioMuxBase + 0x5C, // GPIO11 (SD_CMD)
	ioMuxBase + 0x34, // GPIO12 (MTDI)
	ioMuxBase + 0x38, // GPIO13 (MTCK)
	ioMuxBase + 0x30, // GPIO14 (MTMS)
	ioMuxBase + 0x3C, // GPIO15 (MTDO)
	ioMuxBase + 0x4C, // GPIO16
	ioMuxBase + 0x50, // GPIO17
	ioMuxBase + 0x70, // GPIO18
	ioMuxBase + 0x74, // GPIO19
	0,                // GPIO20
	ioMuxBase + 0x7C, // GPIO21
	ioMuxBase + 0x80, // GPIO22
	ioMuxBase + 0x8C, // GPIO23
	0,                // GPIO24
	ioMuxBase + 0x24, // GPIO25
	ioMuxBase + 0x28, // GPIO26
	ioMuxBase + 0x2C, // GPIO27
	0,                // GPIO28
	0,                // GPIO29
	0,                // GPIO30
	0,                // GPIO31
	ioMuxBase + 0x1C, // GPIO32 (32K_XP)
	ioMuxBase + 0x20, // GPIO33 (32K_XN)
	ioMuxBase + 0x14, // GPIO34 (VDET_1)
	ioMuxBase + 0x18, // GPIO35 (VDET_2)
	ioMuxBase + 0x04, // GPIO36 (SENSOR_VP)
	ioMuxBase + 0x08, // GPIO37 (SENSOR_CAPP)
	ioMuxBase + 0x0C, // GPIO38 (SENSOR_CAPN)
	ioMuxBase + 0x10, // GPIO39 (SENSOR_VN)
}

// IsValid reports whether pin names a physical pad
func IsValid(pin Pin) bool {
	return pin < MaxPinCount && pinMuxReg[pin] != 0
}

// IsInputOnly reports whether pin lacks an output driver
func IsInputOnly(pin Pin) bool {
	return pin >= FirstInputOnlyPin && pin < MaxPinCount
}

// muxReg returns the IO_MUX register address for pin (0 when absent)
func muxReg(pin Pin) uint32 {
	if pin >= MaxPinCount {
		return 0
	}
	return pinMuxReg[pin]
}

// ValidPins returns the mask of every physical pad
func ValidPins() PinMask {
	var m PinMask
	for p := Pin(0); p < MaxPinCount; p++ {
		if IsValid(p) {
			m |= 1 << p
		}
	}
	return m
}

// MaskOf builds a mask from a list of pins. Identifiers >= 64 are ignored.
func MaskOf(pins ...Pin) PinMask {
	var m PinMask
	for _, p := range pins {
		if p < 64 {
			m |= 1 << p
		}
	}
	return m
}

// Has reports whether pin is selected
func (m PinMask) Has(pin Pin) bool {
	return pin < 64 && m&(1<<pin) != 0
}

// Pins lists the selected identifiers in ascending order
func (m PinMask) Pins() []Pin {
	var out []Pin
	for p := Pin(0); p < 64; p++ {
		if m.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// PinName returns the dictionary name of a pin ("gpio5")
func PinName(pin Pin) string {
	return "gpio" + utoa(uint32(pin))
}
