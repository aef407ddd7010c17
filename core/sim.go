package core

import "sync"

// RegWrite is one store observed by a SimBus
type RegWrite struct {
	Addr  uint32
	Value uint32
}

// SimBus is an in-memory GPIO register file used on hosts without the chip.
//
// It models the parts of the hardware the controller depends on: the
// write-one-to-set/clear aliases of OUT and ENABLE, and the IN registers, which
// read back the output latch for output-enabled pins and the externally driven
// level (see DriveInput) for the rest. Every other address is plain storage.
type SimBus struct {
	mu       sync.Mutex
	regs     map[uint32]uint32
	external [2]uint32
	writes   []RegWrite

	// StoreHook, when set, runs after every store outside the bus lock
	StoreHook func(addr, value uint32)
}

// NewSimBus returns an empty register file (all registers read 0)
func NewSimBus() *SimBus {
	return &SimBus{regs: make(map[uint32]uint32)}
}

var simAliases = map[uint32]struct {
	target uint32
	set    bool
}{
	regOutW1TS:     {regOut, true},
	regOutW1TC:     {regOut, false},
	regOut1W1TS:    {regOut1, true},
	regOut1W1TC:    {regOut1, false},
	regEnableW1TS:  {regEnable, true},
	regEnableW1TC:  {regEnable, false},
	regEnable1W1TS: {regEnable1, true},
	regEnable1W1TC: {regEnable1, false},
	regStatusW1TC:  {regStatus, false},
	regStatus1W1TC: {regStatus1, false},
}

// Load reads a register
func (s *SimBus) Load(addr uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch addr {
	case regIn:
		return s.inputLocked(0)
	case regIn1:
		return s.inputLocked(1)
	}
	return s.regs[addr]
}

// Store writes a register, resolving W1TS/W1TC aliases onto their target
func (s *SimBus) Store(addr uint32, value uint32) {
	s.mu.Lock()
	s.writes = append(s.writes, RegWrite{Addr: addr, Value: value})
	if alias, ok := simAliases[addr]; ok {
		if alias.set {
			s.regs[alias.target] |= value
		} else {
			s.regs[alias.target] &^= value
		}
	} else {
		s.regs[addr] = value
	}
	hook := s.StoreHook
	s.mu.Unlock()

	if hook != nil {
		hook(addr, value)
	}
}

func (s *SimBus) inputLocked(b int) uint32 {
	out, en := s.regs[regOut], s.regs[regEnable]
	if b == 1 {
		out, en = s.regs[regOut1], s.regs[regEnable1]
	}
	return s.external[b]&^en | out&en
}

// DriveInput sets the level an external circuit applies to pin
func (s *SimBus) DriveInput(pin Pin, high bool) {
	if pin >= 64 {
		return
	}
	b, bit := bankBit(pin)
	s.mu.Lock()
	defer s.mu.Unlock()
	if high {
		s.external[b] |= bit
	} else {
		s.external[b] &^= bit
	}
}

// RaiseInterrupt latches the interrupt status bit of pin, as the GPIO block
// does when the pin's trigger condition is met
func (s *SimBus) RaiseInterrupt(pin Pin) {
	if pin >= MaxPinCount {
		return
	}
	b, bit := bankBit(pin)
	reg := uint32(regStatus)
	if b == 1 {
		reg = regStatus1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[reg] |= bit
}

// Writes returns a copy of the store log
func (s *SimBus) Writes() []RegWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RegWrite, len(s.writes))
	copy(out, s.writes)
	return out
}

// WriteCount returns the number of stores seen so far
func (s *SimBus) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

// Reset clears registers, external levels and the store log
func (s *SimBus) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs = make(map[uint32]uint32)
	s.external = [2]uint32{}
	s.writes = nil
}
