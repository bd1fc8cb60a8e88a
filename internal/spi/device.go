package spi

import (
	"sync"

	"github.com/smoynes/ichspi/internal/hostmem"
)

// Device owns a mapping of the controller's MMIO register block and the
// RegisterFile overlay onto it. The overlay pointer is derived from a
// mapping whose lifetime the mapper owns; Device's teardown reconstructs
// the virtual address and unmaps it exactly once. No other owner of the
// same physical region may exist concurrently.
type Device struct {
	mapper hostmem.Mapper
	regs   *RegisterFile
	virt   hostmem.VirtualAddress
	size   int

	closeOnce sync.Once
	closeErr  error
}

var _ Spi = (*Device)(nil)

// Open maps the register file at phys via m and returns a Device owning
// that mapping.
func Open(m hostmem.Mapper, phys hostmem.PhysicalAddress) (*Device, error) {
	size := int(Size)

	virt, err := hostmem.Map(m, phys, size)
	if err != nil {
		return nil, err
	}

	return &Device{
		mapper: m,
		regs:   Overlay(virt),
		virt:   virt,
		size:   size,
	}, nil
}

// Close unmaps the register region via the owning mapper. It unmaps
// exactly once; a second Close returns the first call's result without
// unmapping again. Unmap failure is not recoverable at this point, so
// callers that care about it should log, not retry.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = hostmem.Unmap(d.mapper, d.virt, d.size)
	})

	return d.closeErr
}

// Capacity forwards to the owned RegisterFile.
func (d *Device) Capacity() (int, error) { return d.regs.Capacity() }

// Read forwards to the owned RegisterFile.
func (d *Device) Read(address int, buf []byte) (int, error) { return d.regs.Read(address, buf) }

// Erase forwards to the owned RegisterFile.
func (d *Device) Erase(address int) error { return d.regs.Erase(address) }

// Write forwards to the owned RegisterFile.
func (d *Device) Write(address int, buf []byte) (int, error) { return d.regs.Write(address, buf) }

// HsfStsCtl returns the controller's current status/control register,
// decoded, for diagnostic use.
func (d *Device) HsfStsCtl() HsfStsCtl {
	return d.regs.hsfstsCtl()
}
