package core

import "sync/atomic"

// NumVectors is the number of CPU interrupt lines per core
const NumVectors = 32

// InterruptHandler runs in interrupt context when its vector fires.
//
// A handler must not block, must finish in bounded time and must not call
// RegisterInterruptHandler for its own vector. DebugAsync is the only
// logging call that is safe from a handler.
type InterruptHandler func(arg interface{})

type binding struct {
	handler InterruptHandler
	arg     interface{}
}

// VectorTable holds one handler binding per CPU interrupt line and a software
// enable mask. The interrupt glue of a target calls Dispatch.
type VectorTable struct {
	enabled  atomic.Uint32
	bindings [NumVectors]atomic.Pointer[binding]
}

// NewVectorTable returns a table with every vector disabled and unbound
func NewVectorTable() *VectorTable {
	return &VectorTable{}
}

// Enable unmasks vector
func (v *VectorTable) Enable(vector uint8) {
	if vector >= NumVectors {
		return
	}
	for {
		old := v.enabled.Load()
		if v.enabled.CompareAndSwap(old, old|1<<vector) {
			return
		}
	}
}

// Disable masks vector; an interrupt raised while masked is lost
func (v *VectorTable) Disable(vector uint8) {
	if vector >= NumVectors {
		return
	}
	for {
		old := v.enabled.Load()
		if v.enabled.CompareAndSwap(old, old&^(1<<vector)) {
			return
		}
	}
}

// Enabled reports whether vector is unmasked
func (v *VectorTable) Enabled(vector uint8) bool {
	return vector < NumVectors && v.enabled.Load()&(1<<vector) != 0
}

// Bound reports whether vector has a handler
func (v *VectorTable) Bound(vector uint8) bool {
	return vector < NumVectors && v.bindings[vector].Load() != nil
}

func (v *VectorTable) set(vector uint8, h InterruptHandler, arg interface{}) {
	v.bindings[vector].Store(&binding{handler: h, arg: arg})
}

// Dispatch invokes the handler bound to vector. It returns false, dropping the
// event, when the vector is masked or unbound.
func (v *VectorTable) Dispatch(vector uint8) bool {
	if !v.Enabled(vector) {
		return false
	}
	b := v.bindings[vector].Load()
	if b == nil {
		return false
	}
	b.handler(b.arg)
	return true
}

// RegisterInterruptHandler routes the GPIO interrupt source to vector on the
// calling core and installs handler with arg, replacing any previous binding.
// The vector is masked during the swap; GPIO interrupts raised in that window
// are dropped, so this belongs in start-up code.
func (c *Controller) RegisterInterruptHandler(vector uint8, handler InterruptHandler, arg interface{}) error {
	if vector >= NumVectors || handler == nil {
		return &opError{op: "register interrupt handler", msg: "vector " + utoa(uint32(vector)), err: ErrInvalidArg}
	}
	l := c.acquire()
	if l == nil {
		return &opError{op: "register interrupt handler", err: ErrNotInitialized}
	}
	defer l.Unlock()

	c.vectors.Disable(vector)
	writeField(c.bus, intrMapReg(c.currentCore(), GPIOIntrSource), FieldIntrMap, uint32(vector))
	c.vectors.set(vector, handler, arg)
	c.vectors.Enable(vector)
	return nil
}
