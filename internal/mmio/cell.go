// Package mmio provides a typed wrapper for memory-mapped device registers.
//
// Go has no volatile qualifier. A plain load or store through a pointer into
// mapped device memory is not guaranteed by the language to survive as a
// single access of the right width: in principle the compiler is free to
// fuse, reorder, or elide it, the way it may for ordinary memory. Cell uses
// sync/atomic, which the runtime guarantees compiles to a single
// machine-width load or store that the compiler cannot reorder across, as
// the practical stand-in for the 32- and 64-bit widths the device registers
// in this driver actually use.
//
// sync/atomic has no 8- or 16-bit primitives (only Uint32, Uint64, Uintptr,
// and friends). Cell still supports those widths to match the controller's
// documented register layout fully, but the single-threaded design of this
// driver (see the SPI package) means a plain load or store is sufficient for
// them: nothing else ever touches the same address concurrently.
package mmio

import (
	"sync/atomic"
	"unsafe"
)

// Unit is the set of widths a device register may have.
type Unit interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Cell is a single device register of width T at a fixed address. A Cell is
// never copied or moved: it exists only as a field of a register file
// overlaid on mapped memory via unsafe.Pointer, so its address is the
// register's address, and its storage is exactly sizeof(T) bytes with no
// added padding.
type Cell[T Unit] struct {
	raw T
}

// Load reads the cell's current value with a single access of width T.
func (c *Cell[T]) Load() T {
	switch unsafe.Sizeof(c.raw) {
	case 4:
		return T(atomic.LoadUint32((*uint32)(unsafe.Pointer(&c.raw)))) //nolint:govet
	case 8:
		return T(atomic.LoadUint64((*uint64)(unsafe.Pointer(&c.raw)))) //nolint:govet
	default:
		return c.raw
	}
}

// Store writes v to the cell with a single access of width T.
func (c *Cell[T]) Store(v T) {
	switch unsafe.Sizeof(c.raw) {
	case 4:
		atomic.StoreUint32((*uint32)(unsafe.Pointer(&c.raw)), uint32(v)) //nolint:govet
	case 8:
		atomic.StoreUint64((*uint64)(unsafe.Pointer(&c.raw)), uint64(v)) //nolint:govet
	default:
		c.raw = v
	}
}
