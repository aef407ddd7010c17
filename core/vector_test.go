package core

import (
	"errors"
	"testing"
)

func TestRegisterInterruptHandler(t *testing.T) {
	c, bus, _ := newTestController(t)

	var got interface{}
	calls := 0
	handler := func(arg interface{}) {
		calls++
		got = arg
	}

	if err := c.RegisterInterruptHandler(19, handler, "button"); err != nil {
		t.Fatalf("RegisterInterruptHandler failed: %v", err)
	}

	if v := readField(bus, intrMapReg(0, GPIOIntrSource), FieldIntrMap); v != 19 {
		t.Errorf("PRO interrupt map = %d, want 19", v)
	}
	if addr := intrMapReg(0, GPIOIntrSource); addr != 0x3FF0015C {
		t.Errorf("PRO map register at %#x, want 0x3FF0015C", addr)
	}

	vt := c.Vectors()
	if !vt.Enabled(19) || !vt.Bound(19) {
		t.Fatal("vector 19 not enabled and bound")
	}
	if !vt.Dispatch(19) {
		t.Fatal("Dispatch(19) returned false")
	}
	if calls != 1 || got != "button" {
		t.Errorf("handler calls = %d, arg = %v", calls, got)
	}

	if vt.Dispatch(20) {
		t.Error("Dispatch on an unbound vector returned true")
	}
}

func TestRegisterInterruptHandlerAppCore(t *testing.T) {
	c, bus, _ := newTestController(t, WithCoreID(func() int { return 1 }))

	if err := c.RegisterInterruptHandler(3, func(interface{}) {}, nil); err != nil {
		t.Fatalf("RegisterInterruptHandler failed: %v", err)
	}
	addr := intrMapReg(1, GPIOIntrSource)
	if addr != 0x3FF00270 {
		t.Errorf("APP map register at %#x, want 0x3FF00270", addr)
	}
	if v := readField(bus, addr, FieldIntrMap); v != 3 {
		t.Errorf("APP interrupt map = %d, want 3", v)
	}
}

func TestRegisterInterruptHandlerReplaces(t *testing.T) {
	c, _, _ := newTestController(t)

	first, second := 0, 0
	_ = c.RegisterInterruptHandler(5, func(interface{}) { first++ }, nil)
	_ = c.RegisterInterruptHandler(5, func(interface{}) { second++ }, nil)

	c.Vectors().Dispatch(5)
	if first != 0 || second != 1 {
		t.Errorf("first = %d, second = %d; want 0, 1", first, second)
	}
}

func TestRegisterInterruptHandlerInvalid(t *testing.T) {
	c, bus, _ := newTestController(t)

	if err := c.RegisterInterruptHandler(NumVectors, func(interface{}) {}, nil); !errors.Is(err, ErrInvalidArg) {
		t.Errorf("vector 32: expected ErrInvalidArg, got %v", err)
	}
	if err := c.RegisterInterruptHandler(1, nil, nil); !errors.Is(err, ErrInvalidArg) {
		t.Errorf("nil handler: expected ErrInvalidArg, got %v", err)
	}
	if bus.WriteCount() != 0 {
		t.Error("rejected registration wrote registers")
	}

	u := Attach(NewSimBus())
	if err := u.RegisterInterruptHandler(1, func(interface{}) {}, nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("uninitialized: expected ErrNotInitialized, got %v", err)
	}
}

func TestVectorTableMasking(t *testing.T) {
	vt := NewVectorTable()
	calls := 0
	vt.set(7, func(interface{}) { calls++ }, nil)

	if vt.Dispatch(7) {
		t.Error("masked vector dispatched")
	}
	vt.Enable(7)
	if !vt.Dispatch(7) {
		t.Error("enabled vector not dispatched")
	}
	vt.Disable(7)
	if vt.Dispatch(7) {
		t.Error("disabled vector dispatched")
	}
	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}

	vt.Enable(40)
	if vt.Enabled(40) {
		t.Error("out of range vector reported enabled")
	}
}

func TestSharedVectorTable(t *testing.T) {
	vt := NewVectorTable()
	c, _, _ := newTestController(t, WithVectorTable(vt))
	if c.Vectors() != vt {
		t.Fatal("controller did not adopt the shared table")
	}
	_ = c.RegisterInterruptHandler(2, func(interface{}) {}, nil)
	if !vt.Bound(2) {
		t.Error("binding not visible through the shared table")
	}
}
