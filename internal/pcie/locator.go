// Package pcie locates the SPI flash controller on the PCIe configuration
// space exposed through the firmware's MCFG table, using only the single
// MCFG field (the ECAM base) the driver actually needs.
package pcie

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"

	"github.com/smoynes/ichspi/internal/hostmem"
)

// ErrUnsupportedDevice is returned when the device at bus 0, device 0x1F,
// function 5 does not match any (vendor, product) pair this driver knows
// how to drive.
var ErrUnsupportedDevice = errors.New("pcie: no supported SPI controller found")

// device identifies the PCI bus/device/function the SPI controller is
// always found at on PCH-based systems.
const (
	busSPI  = 0x00
	devSPI  = 0x1F
	funcSPI = 0x05

	configSpaceSize = 4096

	offsetVendorID = 0x00
	offsetDeviceID = 0x02
	offsetBAR0     = 0x10
)

// pciIDs is the allow-list of (vendor, product) pairs this driver recognizes
// as hardware-sequencing SPI flash controllers, one entry per PCH
// generation.
var pciIDs = []struct {
	vendor, product uint16
	name            string
}{
	{0x8086, 0x02A4, "Comet Lake"},
	{0x8086, 0x06A4, "Comet Lake-H"},
	{0x8086, 0x43A4, "Tiger Lake-H"},
	{0x8086, 0x51A4, "Alder Lake-P"},
	{0x8086, 0x7723, "Arrow Lake-HU"},
	{0x8086, 0x7A24, "Alder Lake-S"},
	{0x8086, 0x7E23, "Meteor Lake-HU"},
	{0x8086, 0x9DA4, "Cannon Lake"},
	{0x8086, 0xA0A4, "Tiger Lake"},
	{0x8086, 0xA324, "Cannon Lake-H"},
}

// LocateResult reports where the SPI controller's register file lives in
// physical memory, along with the identity that matched.
type LocateResult struct {
	Base PhysicalBase
	Name string
}

// PhysicalBase is the controller's MMIO base address, read from BAR0.
type PhysicalBase hostmem.PhysicalAddress

// ECAMBase reads the little-endian 64-bit PCIe ECAM base address from the
// ACPI MCFG table at the one offset this driver consults (0x2C). mcfg must
// be at least 0x34 bytes.
func ECAMBase(mcfg []byte) (uint64, error) {
	if len(mcfg) < 0x34 {
		return 0, fmt.Errorf("pcie: mcfg too short: %d bytes", len(mcfg))
	}

	return binary.LittleEndian.Uint64(mcfg[0x2C:0x34]), nil
}

// Locate walks the PCIe configuration space for bus 0, device 0x1F,
// function 5, matches its (vendor, product) pair against the allow-list,
// and reads BAR0 to learn the SPI controller's MMIO physical base.
func Locate(m hostmem.Mapper, mcfg []byte) (*LocateResult, error) {
	ecamBase, err := ECAMBase(mcfg)
	if err != nil {
		return nil, err
	}

	configAddr := ecamBase | (uint64(busSPI) << 20) | (uint64(devSPI) << 15) | (uint64(funcSPI) << 12)

	virt, err := hostmem.Map(m, hostmem.PhysicalAddress(configAddr), configSpaceSize)
	if err != nil {
		return nil, fmt.Errorf("pcie: map config space: %w", err)
	}

	space := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(virt))), configSpaceSize)

	vendor := binary.LittleEndian.Uint16(space[offsetVendorID:])
	product := binary.LittleEndian.Uint16(space[offsetDeviceID:])

	var (
		match bool
		name  string
	)

	for _, id := range pciIDs {
		if id.vendor == vendor && id.product == product {
			match, name = true, id.name
			break
		}
	}

	if !match {
		if unmapErr := hostmem.Unmap(m, virt, configSpaceSize); unmapErr != nil {
			return nil, fmt.Errorf("pcie: %w (and unmap config space: %s)", ErrUnsupportedDevice, unmapErr)
		}

		return nil, fmt.Errorf("%w: vendor=%#04x product=%#04x", ErrUnsupportedDevice, vendor, product)
	}

	bar0 := binary.LittleEndian.Uint32(space[offsetBAR0:])

	if err := hostmem.Unmap(m, virt, configSpaceSize); err != nil {
		return nil, fmt.Errorf("pcie: unmap config space: %w", err)
	}

	return &LocateResult{
		Base: PhysicalBase(bar0),
		Name: name,
	}, nil
}
