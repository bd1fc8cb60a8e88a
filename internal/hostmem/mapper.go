// Package hostmem maps device physical memory into the process's address
// space. The capability boundary is Mapper; Map and Unmap add the
// arbitrary-alignment arithmetic callers actually want, on top of a mapper
// that only ever sees page-aligned addresses and sizes.
package hostmem

import "fmt"

// PhysicalAddress is an address in the host's physical address space. It is
// not interchangeable with VirtualAddress; conversion between the two only
// ever happens inside a Mapper implementation.
type PhysicalAddress uintptr

// VirtualAddress is an address in the calling process's address space.
type VirtualAddress uintptr

// Mapper is the capability a host environment exposes for mapping device
// physical memory. Implementations only need to handle page-aligned
// addresses and sizes; Map and Unmap below do the rest.
type Mapper interface {
	// MapAligned maps size bytes of physical memory starting at address into
	// the process, returning the mapping's virtual address. address and size
	// must both be page-aligned.
	MapAligned(address PhysicalAddress, size int) (VirtualAddress, error)

	// UnmapAligned reverses a mapping previously returned by MapAligned.
	// address and size must both be page-aligned.
	UnmapAligned(address VirtualAddress, size int) error

	// PageSize returns the host's page size in bytes.
	PageSize() int
}

// MapperError wraps a failure reported by the host mapper, along with the
// reason it gave.
type MapperError struct {
	Op     string
	Reason string
}

func (e *MapperError) Error() string {
	return fmt.Sprintf("hostmem: %s: %s", e.Op, e.Reason)
}

// Map maps size bytes of physical memory starting at an arbitrary, possibly
// unaligned, address. It rounds address down to the containing page, rounds
// size up to cover the requested range from that page boundary, maps the
// aligned region via m, and returns a virtual address offset back to the
// original within-page position.
func Map(m Mapper, address PhysicalAddress, size int) (VirtualAddress, error) {
	pageSize := m.PageSize()

	page := uintptr(address) / uintptr(pageSize)
	aligned := PhysicalAddress(page * uintptr(pageSize))
	offset := uintptr(address) - uintptr(aligned)
	pages := (offset + uintptr(size) + uintptr(pageSize) - 1) / uintptr(pageSize)
	alignedSize := int(pages * uintptr(pageSize))

	virt, err := m.MapAligned(aligned, alignedSize)
	if err != nil {
		return 0, err
	}

	return VirtualAddress(uintptr(virt) + offset), nil
}

// Unmap reverses a mapping previously returned by Map, given the same
// address and size that were passed to Map.
func Unmap(m Mapper, address VirtualAddress, size int) error {
	pageSize := m.PageSize()

	page := uintptr(address) / uintptr(pageSize)
	aligned := VirtualAddress(page * uintptr(pageSize))
	offset := uintptr(address) - uintptr(aligned)
	pages := (offset + uintptr(size) + uintptr(pageSize) - 1) / uintptr(pageSize)
	alignedSize := int(pages * uintptr(pageSize))

	return m.UnmapAligned(aligned, alignedSize)
}
