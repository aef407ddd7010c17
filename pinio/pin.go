// Package pinio exposes controller pins as periph.io gpio.PinIO so device
// drivers written against periph run on top of the ESP32 controller.
package pinio

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"espgpio/core"
)

// ErrPWMUnsupported is returned by PWM; the GPIO matrix has no PWM of its own
var ErrPWMUnsupported = errors.New("pinio: PWM not supported, use the LEDC peripheral")

// Pin adapts one controller pin. Edge notifications come from an interrupt
// handler calling Notify.
type Pin struct {
	c     *core.Controller
	pin   core.Pin
	name  string
	edges chan struct{}

	mu   sync.Mutex
	edge gpio.Edge
}

// New wraps pin of c
func New(c *core.Controller, pin core.Pin) (*Pin, error) {
	if !core.IsValid(pin) {
		return nil, &core.PinError{Op: "pinio", Pin: pin, Err: core.ErrInvalidArg}
	}
	return &Pin{
		c:     c,
		pin:   pin,
		name:  "GPIO" + strconv.Itoa(int(pin)),
		edges: make(chan struct{}, 1),
	}, nil
}

// Register wraps every pad of c and adds it to the periph registry as "GPIOn"
func Register(c *core.Controller) ([]*Pin, error) {
	var pins []*Pin
	for _, pin := range core.ValidPins().Pins() {
		p, err := New(c, pin)
		if err != nil {
			return pins, err
		}
		if err := gpioreg.Register(p); err != nil {
			return pins, err
		}
		pins = append(pins, p)
	}
	return pins, nil
}

func (p *Pin) String() string {
	return p.name
}

func (p *Pin) Name() string {
	return p.name
}

func (p *Pin) Number() int {
	return int(p.pin)
}

// Function describes the current direction
func (p *Pin) Function() string {
	dir, err := p.c.Direction(p.pin)
	if err != nil {
		return "ERR"
	}
	switch dir {
	case core.DirInput:
		return "In"
	case core.DirOutput:
		return "Out"
	case core.DirInputOutput:
		return "In/Out"
	}
	return "Disabled"
}

// Halt stops edge detection and releases the pad
func (p *Pin) Halt() error {
	p.mu.Lock()
	p.edge = gpio.NoEdge
	p.mu.Unlock()
	if err := p.c.InterruptDisable(p.pin); err != nil {
		return err
	}
	return p.c.SetDirection(p.pin, core.DirDisable)
}

func toPullMode(pull gpio.Pull) (core.PullMode, bool) {
	switch pull {
	case gpio.Float:
		return core.PullFloating, true
	case gpio.PullUp:
		return core.PullUp, true
	case gpio.PullDown:
		return core.PullDown, true
	}
	return 0, false
}

func toIntrType(edge gpio.Edge) core.IntrType {
	switch edge {
	case gpio.RisingEdge:
		return core.IntrPosEdge
	case gpio.FallingEdge:
		return core.IntrNegEdge
	case gpio.BothEdges:
		return core.IntrAnyEdge
	}
	return core.IntrDisable
}

// In makes the pin an input. PullNoChange keeps the current resistors.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if err := p.c.SetDirection(p.pin, core.DirInput); err != nil {
		return err
	}
	if pull != gpio.PullNoChange {
		mode, ok := toPullMode(pull)
		if !ok {
			return &core.PinError{Op: "pinio in", Pin: p.pin, Err: core.ErrInvalidArg}
		}
		if err := p.c.SetPullMode(p.pin, mode); err != nil {
			return err
		}
	}

	if err := p.c.SetInterruptType(p.pin, toIntrType(edge)); err != nil {
		return err
	}
	var err error
	if edge == gpio.NoEdge {
		err = p.c.InterruptDisable(p.pin)
	} else {
		err = p.c.InterruptEnable(p.pin)
	}
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.edge = edge
	p.mu.Unlock()
	// Forget edges seen under the previous configuration
	select {
	case <-p.edges:
	default:
	}
	return nil
}

func (p *Pin) Read() gpio.Level {
	return gpio.Level(p.c.GetLevel(p.pin) != 0)
}

// Notify records an edge; it never blocks and is safe from an interrupt handler
func (p *Pin) Notify() {
	select {
	case p.edges <- struct{}{}:
	default:
	}
}

// WaitForEdge waits for Notify. A negative timeout waits forever. It returns
// false at once when edge detection is off.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	p.mu.Lock()
	edge := p.edge
	p.mu.Unlock()
	if edge == gpio.NoEdge {
		return false
	}

	select {
	case <-p.edges:
		return true
	default:
	}
	if timeout == 0 {
		return false
	}
	if timeout < 0 {
		<-p.edges
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.edges:
		return true
	case <-timer.C:
		return false
	}
}

// Pull reads back the resistor configuration. Both resistors on at once has
// no periph equivalent and reads as PullNoChange.
func (p *Pin) Pull() gpio.Pull {
	mode, err := p.c.PullMode(p.pin)
	if err != nil {
		return gpio.PullNoChange
	}
	switch mode {
	case core.PullUp:
		return gpio.PullUp
	case core.PullDown:
		return gpio.PullDown
	case core.PullFloating:
		return gpio.Float
	}
	return gpio.PullNoChange
}

// DefaultPull is the reset state of the pad: the strapping pins come out of
// reset with a resistor on, the rest float
func (p *Pin) DefaultPull() gpio.Pull {
	switch p.pin {
	case 0, 5, 15:
		return gpio.PullUp
	case 2, 12:
		return gpio.PullDown
	}
	return gpio.Float
}

// Out drives l, setting the latch before enabling the driver
func (p *Pin) Out(l gpio.Level) error {
	var level uint32
	if l {
		level = 1
	}
	if err := p.c.SetLevel(p.pin, level); err != nil {
		return err
	}
	dir, err := p.c.Direction(p.pin)
	if err != nil {
		return err
	}
	if dir == core.DirOutput || dir == core.DirInputOutput {
		return nil
	}
	return p.c.SetDirection(p.pin, core.DirOutput)
}

func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrPWMUnsupported
}

// NotifyAll returns an interrupt handler that signals every pin. The GPIO
// interrupt is shared by all pads, so waiters re-read their pin.
func NotifyAll(pins ...*Pin) core.InterruptHandler {
	return func(interface{}) {
		for _, p := range pins {
			p.Notify()
		}
	}
}

// NotifyPending returns an interrupt handler that acknowledges the GPIO
// interrupt status of c and signals only the pins that fired
func NotifyPending(c *core.Controller, pins ...*Pin) core.InterruptHandler {
	return func(interface{}) {
		pending := c.AckInterrupts()
		for _, p := range pins {
			if pending.Has(p.pin) {
				p.Notify()
			}
		}
	}
}

var _ gpio.PinIO = &Pin{}
