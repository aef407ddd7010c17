//go:build !tinygo

package core

// intrState is a placeholder for the saved interrupt mask on regular Go
type intrState uintptr

// disableInterrupts is a no-op on regular Go (hosts and tests)
func disableInterrupts() intrState {
	return 0
}

// restoreInterrupts is a no-op on regular Go
func restoreInterrupts(intrState) {}
