//go:build linux

package hostmem

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DevMemMapper is a Mapper backed by /dev/mem, the Linux interface for
// mapping physical memory directly into a process. It requires the process
// to run with sufficient privilege (CAP_SYS_RAWIO, typically root) and for
// /dev/mem to permit mapping the requested range (CONFIG_STRICT_DEVMEM may
// refuse ranges outside known device regions).
type DevMemMapper struct {
	file *os.File
}

var _ Mapper = (*DevMemMapper)(nil)

// OpenDevMem opens /dev/mem for read/write, ready to map physical memory.
func OpenDevMem() (*DevMemMapper, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR, 0)
	if err != nil {
		return nil, &MapperError{Op: "open", Reason: err.Error()}
	}

	return &DevMemMapper{file: f}, nil
}

// Close releases the underlying /dev/mem file descriptor. It does not unmap
// any outstanding mappings; callers must UnmapAligned those first.
func (d *DevMemMapper) Close() error {
	return d.file.Close()
}

// PageSize returns the host's page size.
func (d *DevMemMapper) PageSize() int {
	return os.Getpagesize()
}

// MapAligned maps size bytes of physical memory at address, via mmap(2) on
// /dev/mem. address and size must both be page-aligned.
func (d *DevMemMapper) MapAligned(address PhysicalAddress, size int) (VirtualAddress, error) {
	data, err := unix.Mmap(
		int(d.file.Fd()),
		int64(address),
		size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return 0, &MapperError{Op: "mmap", Reason: fmt.Sprintf("%s (phys=%#x size=%#x)", err, address, size)}
	}

	return VirtualAddress(uintptr(unsafe.Pointer(&data[0]))), nil
}

// UnmapAligned reverses a mapping made by MapAligned. address is the virtual
// address MapAligned returned and size is the same size passed to it.
func (d *DevMemMapper) UnmapAligned(address VirtualAddress, size int) error {
	data := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(address))), size)

	if err := unix.Munmap(data); err != nil {
		return &MapperError{Op: "munmap", Reason: err.Error()}
	}

	return nil
}
