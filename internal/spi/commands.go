package spi

// Spi is the flash command surface: capacity discovery plus chunked
// read/erase/write. It is implemented directly by *RegisterFile, so a bare
// overlay (or a test simulator) can drive cycles without a Mapper, and
// again by *Device, which simply forwards to its owned *RegisterFile.
type Spi interface {
	Capacity() (int, error)
	Read(address int, buf []byte) (int, error)
	Erase(address int) error
	Write(address int, buf []byte) (int, error)
}

var _ Spi = (*RegisterFile)(nil)

// maxChunk is the largest data cycle the hardware documents: FDBC is 6
// bits wide, but no cycle moves more than 64 bytes.
const maxChunk = 64

// componentSizes maps the low 3 bits of an FDO component-size read to the
// component's capacity in bytes.
var componentSizes = [8]int{
	512 * 1024,
	1 * 1024 * 1024,
	2 * 1024 * 1024,
	4 * 1024 * 1024,
	8 * 1024 * 1024,
	16 * 1024 * 1024,
	32 * 1024 * 1024,
	64 * 1024 * 1024,
}

// Capacity issues an FDO indirect read of the component section and
// decodes the 3-bit power-of-two size code.
func (r *RegisterFile) Capacity() (int, error) {
	r.FDOC.Store(fdoc(FdoComponent, 0))

	code := r.FDOD.Load() & 0x7

	if int(code) >= len(componentSizes) {
		return 0, ErrRegister
	}

	return componentSizes[code], nil
}

// Read fills buf from the flash starting at address, chunking into
// maxChunk-byte segments, and returns the number of bytes read.
func (r *RegisterFile) Read(address int, buf []byte) (int, error) {
	var total int

	for total < len(buf) {
		n := chunkLen(len(buf) - total)
		chunk := buf[total : total+n]

		if err := r.drive(CycleRead, uint32(address+total), chunk, dirRead); err != nil {
			return total, err
		}

		total += n
	}

	return total, nil
}

// Erase drives one BlockErase cycle at address, which must be aligned to
// the controller's 4 KiB erase granularity.
func (r *RegisterFile) Erase(address int) error {
	return r.drive(CycleBlockErase, uint32(address), nil, dirNone)
}

// Write sends buf to the flash starting at address, chunking into
// maxChunk-byte segments, and returns the number of bytes written.
func (r *RegisterFile) Write(address int, buf []byte) (int, error) {
	var total int

	for total < len(buf) {
		n := chunkLen(len(buf) - total)
		chunk := buf[total : total+n]

		if err := r.drive(CycleWrite, uint32(address+total), chunk, dirWrite); err != nil {
			return total, err
		}

		total += n
	}

	return total, nil
}

func chunkLen(remaining int) int {
	if remaining > maxChunk {
		return maxChunk
	}

	return remaining
}
