// Package spi drives the Intel PCH hardware-sequencing SPI flash
// controller: the MMIO register layout, the HSFSTS_CTL bitfield encoding,
// the cycle-driving state machine, and the flash command surface built on
// top of it.
package spi

import (
	"fmt"
	"unsafe"

	"github.com/smoynes/ichspi/internal/hostmem"
	"github.com/smoynes/ichspi/internal/mmio"
)

// RegisterFile is an exact-offset overlay of the controller's MMIO register
// block. Every named field is a Cell[uint32]; the reserved arrays are sized
// precisely so Go's struct layout (no implicit padding between
// same-size fields) keeps every field at its documented offset.
type RegisterFile struct {
	BFPREG     mmio.Cell[uint32] // 0x00 BIOS primary region
	HsfstsCtl  mmio.Cell[uint32] // 0x04 status/control
	FADDR      mmio.Cell[uint32] // 0x08 flash address
	DLOCK      mmio.Cell[uint32] // 0x0C discrete lock bits
	FDATA      [16]mmio.Cell[uint32] // 0x10..0x4F data buffer
	FRACC      mmio.Cell[uint32] // 0x50 region access permissions
	FREG       [6]mmio.Cell[uint32] // 0x54..0x6B region base/limit
	reserved1  [6]mmio.Cell[uint32] // 0x6C..0x83
	FPR        [5]mmio.Cell[uint32] // 0x84..0x97 protected ranges
	GPR        mmio.Cell[uint32] // 0x98 global protected range
	reserved2  [5]mmio.Cell[uint32] // 0x9C..0xAF
	SFRACC     mmio.Cell[uint32] // 0xB0 secondary permissions
	FDOC       mmio.Cell[uint32] // 0xB4 FD observability control
	FDOD       mmio.Cell[uint32] // 0xB8 FD observability data
	reserved3  mmio.Cell[uint32] // 0xBC
	AFC        mmio.Cell[uint32] // 0xC0 additional flash control
	VSCC0      mmio.Cell[uint32] // 0xC4
	VSCC1      mmio.Cell[uint32] // 0xC8
	PTINX      mmio.Cell[uint32] // 0xCC
	PTDATA     mmio.Cell[uint32] // 0xD0
	SBRS       mmio.Cell[uint32] // 0xD4
}

// Size is sizeof(RegisterFile): the number of bytes the register block
// occupies in MMIO space.
const Size = unsafe.Sizeof(RegisterFile{})

func init() {
	r := &RegisterFile{}
	base := uintptr(unsafe.Pointer(r))

	assertOffset("BFPREG", base, unsafe.Pointer(&r.BFPREG), 0x00)
	assertOffset("HSFSTS_CTL", base, unsafe.Pointer(&r.HsfstsCtl), 0x04)
	assertOffset("FADDR", base, unsafe.Pointer(&r.FADDR), 0x08)
	assertOffset("FDATA[0]", base, unsafe.Pointer(&r.FDATA[0]), 0x10)
	assertOffset("FREG[0]", base, unsafe.Pointer(&r.FREG[0]), 0x54)
	assertOffset("FPR[0]", base, unsafe.Pointer(&r.FPR[0]), 0x84)
	assertOffset("GPR", base, unsafe.Pointer(&r.GPR), 0x98)
	assertOffset("SFRACC", base, unsafe.Pointer(&r.SFRACC), 0xB0)
	assertOffset("FDOC", base, unsafe.Pointer(&r.FDOC), 0xB4)
	assertOffset("FDOD", base, unsafe.Pointer(&r.FDOD), 0xB8)
	assertOffset("AFC", base, unsafe.Pointer(&r.AFC), 0xC0)
	assertOffset("SBRS", base, unsafe.Pointer(&r.SBRS), 0xD4)
}

func assertOffset(name string, base uintptr, field unsafe.Pointer, want uintptr) {
	if got := uintptr(field) - base; got != want {
		panic(fmt.Sprintf("spi: register %s at offset %#x, want %#x", name, got, want))
	}
}

// Overlay reinterprets the mapped memory at virt as a RegisterFile. The
// caller is responsible for ensuring the mapping is at least Size bytes and
// outlives the returned pointer.
func Overlay(virt hostmem.VirtualAddress) *RegisterFile {
	return (*RegisterFile)(unsafe.Pointer(uintptr(virt)))
}

// hsfstsCtl loads the current HSFSTS_CTL value.
func (r *RegisterFile) hsfstsCtl() HsfStsCtl {
	return HsfStsCtl(r.HsfstsCtl.Load())
}

// setHsfstsCtl stores a new HSFSTS_CTL value.
func (r *RegisterFile) setHsfstsCtl(v HsfStsCtl) {
	r.HsfstsCtl.Store(uint32(v))
}
