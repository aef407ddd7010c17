//go:build tinygo

package core

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is the memory-mapped register bus of the running chip
var MMIO Bus = volatileBus{}

type volatileBus struct{}

func (volatileBus) Load(addr uint32) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(uintptr(addr))))
}

func (volatileBus) Store(addr uint32, value uint32) {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(uintptr(addr))), value)
}
