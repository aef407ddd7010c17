package core

import "sync"

// LockFactory creates the controller lock. It may fail when the platform
// cannot provide one.
type LockFactory func() (sync.Locker, error)

// criticalSection serialises register read-modify-write sequences between
// goroutines and masks interrupts on the holding core.
type criticalSection struct {
	mu    sync.Mutex
	state intrState
}

func newCriticalSection() (sync.Locker, error) {
	return &criticalSection{}, nil
}

func (c *criticalSection) Lock() {
	c.mu.Lock()
	c.state = disableInterrupts()
}

func (c *criticalSection) Unlock() {
	restoreInterrupts(c.state)
	c.mu.Unlock()
}

// lockBox lets the lock be published through an atomic pointer
type lockBox struct {
	sync.Locker
}
