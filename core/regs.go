package core

// ESP32 register map for the GPIO matrix, IO_MUX and the DPORT interrupt matrix.
// All addresses and bit fields used by the controller live in this file.

const (
	gpioBase  = 0x3FF44000
	ioMuxBase = 0x3FF49000
	dportBase = 0x3FF00000
)

// GPIO block
const (
	regOut         = gpioBase + 0x04
	regOutW1TS     = gpioBase + 0x08
	regOutW1TC     = gpioBase + 0x0C
	regOut1        = gpioBase + 0x10
	regOut1W1TS    = gpioBase + 0x14
	regOut1W1TC    = gpioBase + 0x18
	regEnable      = gpioBase + 0x20
	regEnableW1TS  = gpioBase + 0x24
	regEnableW1TC  = gpioBase + 0x28
	regEnable1     = gpioBase + 0x2C
	regEnable1W1TS = gpioBase + 0x30
	regEnable1W1TC = gpioBase + 0x34
	regIn          = gpioBase + 0x3C
	regIn1         = gpioBase + 0x40
	regStatus      = gpioBase + 0x44 // interrupt status, GPIO0-31
	regStatusW1TC  = gpioBase + 0x4C
	regStatus1     = gpioBase + 0x50 // interrupt status, GPIO32-39
	regStatus1W1TC = gpioBase + 0x58
	regPin0        = gpioBase + 0x88 // GPIO_PINn_REG, 4 bytes apart
)

// Interrupt matrix
const (
	regProIntrMap0 = dportBase + 0x104 // PRO_CPU map for source 0
	regAppIntrMap0 = dportBase + 0x218 // APP_CPU map for source 0

	// GPIOIntrSource is the peripheral interrupt source number of the GPIO block
	GPIOIntrSource = 22
)

// Field is a contiguous bit range inside a 32-bit register
type Field struct {
	Shift uint8
	Width uint8
}

// Mask returns the in-place mask of the field
func (f Field) Mask() uint32 {
	return (uint32(1)<<f.Width - 1) << f.Shift
}

// Get extracts the field from a register value
func (f Field) Get(reg uint32) uint32 {
	return (reg & f.Mask()) >> f.Shift
}

// Set returns reg with the field replaced by v (v is truncated to the field width)
func (f Field) Set(reg, v uint32) uint32 {
	return reg&^f.Mask() | (v<<f.Shift)&f.Mask()
}

// IO_MUX_x_REG fields
var (
	FieldMuxMCUSel = Field{Shift: 12, Width: 3} // function select
	FieldMuxFunDrv = Field{Shift: 10, Width: 2}
	FieldMuxFunIE  = Field{Shift: 9, Width: 1} // input enable
	FieldMuxFunWPU = Field{Shift: 8, Width: 1} // pull-up
	FieldMuxFunWPD = Field{Shift: 7, Width: 1} // pull-down
)

// GPIO_PINn_REG fields
var (
	FieldPinPadDriver = Field{Shift: 2, Width: 1} // open drain
	FieldPinIntType   = Field{Shift: 7, Width: 3}
	FieldPinWakeup    = Field{Shift: 10, Width: 1}
	FieldPinIntEna    = Field{Shift: 13, Width: 5}
)

// FieldIntrMap is the CPU interrupt number field of an interrupt matrix entry
var FieldIntrMap = Field{Shift: 0, Width: 5}

const (
	funcGPIO = 2 // MCU_SEL value routing the pad to the GPIO matrix

	intEnaApp = 1 << 0 // GPIO_APP_CPU_INTR_ENA
	intEnaPro = 1 << 2 // GPIO_PRO_CPU_INTR_ENA
)

// pinReg returns the GPIO_PINn_REG address
func pinReg(pin Pin) uint32 {
	return regPin0 + uint32(pin)*4
}

// intrMapReg returns the interrupt matrix entry routing source on the given core
func intrMapReg(core int, source uint32) uint32 {
	if core == 0 {
		return regProIntrMap0 + source*4
	}
	return regAppIntrMap0 + source*4
}

// bank selects the register group a pin lives in and its bit within it
type bank struct {
	w1ts, w1tc uint32
}

var (
	outBanks    = [2]bank{{regOutW1TS, regOutW1TC}, {regOut1W1TS, regOut1W1TC}}
	enableBanks = [2]bank{{regEnableW1TS, regEnableW1TC}, {regEnable1W1TS, regEnable1W1TC}}
	inRegs      = [2]uint32{regIn, regIn1}
)

// bankBit splits a pin into its 32-bit bank index and bit mask
func bankBit(pin Pin) (int, uint32) {
	if pin < 32 {
		return 0, 1 << pin
	}
	return 1, 1 << (pin - 32)
}
