package pinio

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"espgpio/core"
)

func newTestPin(t *testing.T, pin core.Pin) (*Pin, *core.Controller, *core.SimBus) {
	t.Helper()
	bus := core.NewSimBus()
	c, err := core.New(bus)
	if err != nil {
		t.Fatalf("core.New failed: %v", err)
	}
	p, err := New(c, pin)
	if err != nil {
		t.Fatalf("New(%d) failed: %v", pin, err)
	}
	return p, c, bus
}

func TestNewRejectsAbsentPins(t *testing.T) {
	c, _ := core.New(core.NewSimBus())
	for _, pin := range []core.Pin{20, 24, 28, 40} {
		if _, err := New(c, pin); !errors.Is(err, core.ErrInvalidArg) {
			t.Errorf("New(%d) = %v, want ErrInvalidArg", pin, err)
		}
	}
}

func TestIdentity(t *testing.T) {
	p, _, _ := newTestPin(t, 27)
	if p.Name() != "GPIO27" || p.String() != "GPIO27" || p.Number() != 27 {
		t.Errorf("identity = %q %q %d", p.Name(), p.String(), p.Number())
	}
	if p.Function() != "Disabled" {
		t.Errorf("Function() = %q at reset", p.Function())
	}
}

func TestOutAndRead(t *testing.T) {
	p, c, _ := newTestPin(t, 5)

	if err := p.Out(gpio.High); err != nil {
		t.Fatalf("Out failed: %v", err)
	}
	if dir, _ := c.Direction(5); dir != core.DirOutput {
		t.Errorf("direction = %v after Out", dir)
	}
	if p.Read() != gpio.High {
		t.Error("Read() = Low after Out(High)")
	}
	if err := p.Out(gpio.Low); err != nil {
		t.Fatalf("Out failed: %v", err)
	}
	if p.Read() != gpio.Low {
		t.Error("Read() = High after Out(Low)")
	}
	if p.Function() != "Out" {
		t.Errorf("Function() = %q", p.Function())
	}

	in, _, _ := newTestPin(t, 36)
	if err := in.Out(gpio.High); !errors.Is(err, core.ErrInvalidArg) {
		t.Errorf("Out on GPIO36 = %v, want ErrInvalidArg", err)
	}
	if err := in.PWM(gpio.DutyHalf, 0); !errors.Is(err, ErrPWMUnsupported) {
		t.Errorf("PWM = %v", err)
	}
}

func TestIn(t *testing.T) {
	p, c, bus := newTestPin(t, 35)

	tests := []struct {
		pull     gpio.Pull
		edge     gpio.Edge
		wantPull gpio.Pull
		wantIntr core.IntrType
	}{
		{gpio.PullUp, gpio.FallingEdge, gpio.PullUp, core.IntrNegEdge},
		{gpio.PullNoChange, gpio.RisingEdge, gpio.PullUp, core.IntrPosEdge},
		{gpio.PullDown, gpio.BothEdges, gpio.PullDown, core.IntrAnyEdge},
		{gpio.Float, gpio.NoEdge, gpio.Float, core.IntrDisable},
	}
	for _, tt := range tests {
		if err := p.In(tt.pull, tt.edge); err != nil {
			t.Fatalf("In(%v, %v) failed: %v", tt.pull, tt.edge, err)
		}
		if got := p.Pull(); got != tt.wantPull {
			t.Errorf("In(%v, %v): Pull() = %v, want %v", tt.pull, tt.edge, got, tt.wantPull)
		}
		state, _ := c.State(35)
		if state.Intr != tt.wantIntr || (state.IntrEnable != 0) != (tt.edge != gpio.NoEdge) {
			t.Errorf("In(%v, %v): state = %+v", tt.pull, tt.edge, state)
		}
	}

	if p.Function() != "In" {
		t.Errorf("Function() = %q", p.Function())
	}
	bus.DriveInput(35, true)
	if p.Read() != gpio.High {
		t.Error("Read() = Low with the line driven high")
	}
}

func TestWaitForEdge(t *testing.T) {
	p, _, _ := newTestPin(t, 4)

	if p.WaitForEdge(time.Second) {
		t.Error("WaitForEdge returned true with edge detection off")
	}

	if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		t.Fatalf("In failed: %v", err)
	}
	if p.WaitForEdge(10 * time.Millisecond) {
		t.Error("WaitForEdge returned true without an edge")
	}

	handler := NotifyAll(p)
	go func() {
		time.Sleep(10 * time.Millisecond)
		handler(nil)
	}()
	if !p.WaitForEdge(-1) {
		t.Error("WaitForEdge(-1) returned false")
	}

	// Edges coalesce while nobody waits
	p.Notify()
	p.Notify()
	if !p.WaitForEdge(0) {
		t.Error("pending edge lost")
	}
	if p.WaitForEdge(5 * time.Millisecond) {
		t.Error("edges were not coalesced")
	}
}

func TestNotifyPending(t *testing.T) {
	button, c, bus := newTestPin(t, 0)
	sensor, err := New(c, 35)
	if err != nil {
		t.Fatalf("New(35) failed: %v", err)
	}
	for _, p := range []*Pin{button, sensor} {
		if err := p.In(gpio.PullNoChange, gpio.FallingEdge); err != nil {
			t.Fatalf("%s: In failed: %v", p, err)
		}
	}

	const vector = 9
	if err := c.RegisterInterruptHandler(vector, NotifyPending(c, button, sensor), nil); err != nil {
		t.Fatalf("RegisterInterruptHandler failed: %v", err)
	}

	bus.RaiseInterrupt(35)
	if !c.Vectors().Dispatch(vector) {
		t.Fatal("Dispatch dropped the interrupt")
	}
	if !sensor.WaitForEdge(0) {
		t.Error("GPIO35 not notified")
	}
	if button.WaitForEdge(0) {
		t.Error("GPIO0 notified without a latched interrupt")
	}
	if pending := c.AckInterrupts(); pending != 0 {
		t.Errorf("status not cleared by the handler: %#x", uint64(pending))
	}
}

func TestHalt(t *testing.T) {
	p, c, _ := newTestPin(t, 4)
	p.In(gpio.PullUp, gpio.BothEdges)

	if err := p.Halt(); err != nil {
		t.Fatalf("Halt failed: %v", err)
	}
	state, _ := c.State(4)
	if state.IntrEnable != 0 {
		t.Error("interrupt still enabled after Halt")
	}
	if dir, _ := c.Direction(4); dir != core.DirDisable {
		t.Errorf("direction = %v after Halt", dir)
	}
	if p.WaitForEdge(time.Second) {
		t.Error("WaitForEdge true after Halt")
	}
}

func TestDefaultPull(t *testing.T) {
	tests := map[core.Pin]gpio.Pull{
		0:  gpio.PullUp,
		2:  gpio.PullDown,
		4:  gpio.Float,
		12: gpio.PullDown,
		15: gpio.PullUp,
	}
	for pin, want := range tests {
		p, _, _ := newTestPin(t, pin)
		if got := p.DefaultPull(); got != want {
			t.Errorf("gpio%d DefaultPull() = %v, want %v", pin, got, want)
		}
	}
}

func TestRegister(t *testing.T) {
	c, _ := core.New(core.NewSimBus())
	pins, err := Register(c)
	t.Cleanup(func() {
		for _, p := range pins {
			gpioreg.Unregister(p.Name())
		}
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if len(pins) != 34 {
		t.Errorf("registered %d pins, want 34", len(pins))
	}

	p := gpioreg.ByName("GPIO5")
	if p == nil {
		t.Fatal("GPIO5 not in the periph registry")
	}
	if err := p.Out(gpio.High); err != nil {
		t.Fatalf("Out through the registry failed: %v", err)
	}
	if c.GetLevel(5) != 1 {
		t.Error("level not driven through the registry")
	}
	if gpioreg.ByName("GPIO20") != nil {
		t.Error("absent GPIO20 registered")
	}
}
