package core

// Bus performs 32-bit register accesses at absolute addresses.
// A single Load or Store is atomic with respect to other bus masters;
// nothing else is.
type Bus interface {
	Load(addr uint32) uint32
	Store(addr uint32, value uint32)
}

// readField reads one field of a register
func readField(bus Bus, addr uint32, f Field) uint32 {
	return f.Get(bus.Load(addr))
}

// writeField replaces one field of a register (read-modify-write, caller holds the lock)
func writeField(bus Bus, addr uint32, f Field, v uint32) {
	bus.Store(addr, f.Set(bus.Load(addr), v))
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
