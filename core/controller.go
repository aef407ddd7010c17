package core

import (
	"sync"
	"sync/atomic"
)

// Controller owns the GPIO and IO_MUX register blocks of one chip.
//
// Methods that rewrite part of a shared register (IO_MUX pads, GPIO_PINn) run
// under the controller lock. Methods that write a single bit through a
// write-one-to-set/clear alias (output enable, output level) do not take it:
// the hardware makes those stores atomic. Internally every public method that
// locks delegates to unexported apply* helpers that never lock, so no path
// acquires the lock twice.
type Controller struct {
	bus     Bus
	lock    atomic.Pointer[lockBox]
	initMu  sync.Mutex
	newLock LockFactory
	coreID  func() int
	vectors *VectorTable
	warn    DebugWriter
}

// Option configures a Controller
type Option func(*Controller)

// WithDebugWriter routes controller warnings to w instead of the global debug writer
func WithDebugWriter(w DebugWriter) Option {
	return func(c *Controller) {
		c.warn = w
	}
}

// WithCoreID sets the function reporting which CPU core the caller runs on
// (0 = PRO_CPU, 1 = APP_CPU)
func WithCoreID(f func() int) Option {
	return func(c *Controller) {
		c.coreID = f
	}
}

// WithLockFactory replaces the default lock constructor
func WithLockFactory(f LockFactory) Option {
	return func(c *Controller) {
		c.newLock = f
	}
}

// WithVectorTable shares an existing vector table with the controller
func WithVectorTable(v *VectorTable) Option {
	return func(c *Controller) {
		c.vectors = v
	}
}

// defaultCoreID reports the PRO_CPU: TinyGo runs every goroutine on core 0
func defaultCoreID() int {
	return 0
}

// Attach binds a controller to a register bus without creating its lock.
// Locked operations fail with ErrNotInitialized until Init (or Configure) succeeds.
func Attach(bus Bus, opts ...Option) *Controller {
	c := &Controller{
		bus:     bus,
		newLock: newCriticalSection,
		coreID:  defaultCoreID,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.vectors == nil {
		c.vectors = NewVectorTable()
	}
	return c
}

// New binds a controller to bus and creates its lock
func New(bus Bus, opts ...Option) (*Controller, error) {
	c := Attach(bus, opts...)
	if err := c.Init(); err != nil {
		return nil, err
	}
	return c, nil
}

// Init creates the controller lock if it does not exist yet. It is idempotent.
func (c *Controller) Init() error {
	if c.lock.Load() != nil {
		return nil
	}

	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.lock.Load() != nil {
		return nil
	}

	l, err := c.newLock()
	if err != nil {
		return &opError{op: "init", msg: err.Error(), err: ErrNotInitialized}
	}
	if l == nil {
		return &opError{op: "init", err: ErrNotInitialized}
	}
	c.lock.Store(&lockBox{Locker: l})
	return nil
}

// Initialized reports whether the lock exists
func (c *Controller) Initialized() bool {
	return c.lock.Load() != nil
}

// Vectors returns the interrupt vector table used by the controller
func (c *Controller) Vectors() *VectorTable {
	return c.vectors
}

// acquire takes the controller lock; it returns nil when the lock does not exist
func (c *Controller) acquire() sync.Locker {
	box := c.lock.Load()
	if box == nil {
		return nil
	}
	box.Lock()
	return box.Locker
}

// locked runs fn for pin under the controller lock
func (c *Controller) locked(op string, pin Pin, fn func() error) error {
	l := c.acquire()
	if l == nil {
		return pinErr(op, pin, ErrNotInitialized)
	}
	defer l.Unlock()
	return fn()
}

func (c *Controller) warnf(msg string) {
	if c.warn != nil {
		c.warn(msg)
		return
	}
	debugPrintln(msg)
}

func (c *Controller) currentCore() int {
	if c.coreID == nil {
		return defaultCoreID()
	}
	return c.coreID()
}
