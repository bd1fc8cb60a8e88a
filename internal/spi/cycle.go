package spi

// direction says which way data moves during the program/drain phases of a
// cycle: dirNone for erase (no data phase at all), dirWrite to pack the
// caller's bytes into FDATA before the cycle starts, dirRead to unpack
// FDATA into the caller's buffer after it completes.
type direction uint8

const (
	dirNone direction = iota
	dirRead
	dirWrite
)

// drive runs a single hardware cycle end to end: wait for the controller to
// be idle, sanitize the control register, program the address/data/opcode,
// commit by raising FGO, poll for completion, drain any read data, and
// sanitize again. This is the central correctness contract of the driver;
// every flash operation is built from calls to drive, one per hardware
// cycle (Read and Write make one call per 64-byte chunk).
func (r *RegisterFile) drive(op CycleOpcode, addr uint32, data []byte, dir direction) error {
	r.waitIdle()
	r.sanitizeOnce()

	r.FADDR.Store(addr)

	if dir == dirWrite {
		r.packFDATA(data)
	}

	h := r.hsfstsCtl().SetCycle(op)

	if dir != dirNone {
		h = h.SetCount(uint8(len(data)))
	}

	h |= FGO

	r.setHsfstsCtl(h)

	if err := r.pollComplete(); err != nil {
		return err
	}

	if dir == dirRead {
		r.unpackFDATA(data)
	}

	r.sanitizeOnce()

	return nil
}

// waitIdle busy-polls HSFSTS_CTL until the controller reports no cycle in
// progress. There is no timeout: the hardware is expected to retire prior
// cycles autonomously, and the controller owns the flash bus until it
// clears H_SCIP.
func (r *RegisterFile) waitIdle() {
	for r.hsfstsCtl()&HSCIP != 0 {
	}
}

// sanitizeOnce reads HSFSTS_CTL, applies Sanitize, and writes it back.
func (r *RegisterFile) sanitizeOnce() {
	r.setHsfstsCtl(r.hsfstsCtl().Sanitize())
}

// pollComplete busy-polls HSFSTS_CTL after FGO is set. A set FCERR
// sanitizes the register and fails with ErrCycle; a set FDONE ends the
// poll successfully. H_AEL is not inspected here; see AccessError.
func (r *RegisterFile) pollComplete() error {
	for {
		h := r.hsfstsCtl()

		if h&FCERR != 0 {
			r.sanitizeOnce()
			return ErrCycle
		}

		if h&FDONE != 0 {
			return nil
		}
	}
}

// AccessError reports whether the Access Error Log bit is currently set. It
// is not consulted automatically by drive; a caller that cares inspects it
// deliberately.
func (r *RegisterFile) AccessError() error {
	if r.hsfstsCtl()&HAEL != 0 {
		return ErrAccess
	}

	return nil
}

// packFDATA packs data little-endian into the FDATA word buffer, ⌈len/4⌉
// words wide.
func (r *RegisterFile) packFDATA(data []byte) {
	words := (len(data) + 3) / 4

	for i := 0; i < words; i++ {
		var word uint32

		for b := 0; b < 4; b++ {
			idx := i*4 + b
			if idx < len(data) {
				word |= uint32(data[idx]) << (8 * b)
			}
		}

		r.FDATA[i].Store(word)
	}
}

// unpackFDATA unpacks ⌈len(data)/4⌉ words of the FDATA buffer little-endian
// into data.
func (r *RegisterFile) unpackFDATA(data []byte) {
	words := (len(data) + 3) / 4

	for i := 0; i < words; i++ {
		word := r.FDATA[i].Load()

		for b := 0; b < 4; b++ {
			idx := i*4 + b
			if idx < len(data) {
				data[idx] = byte(word >> (8 * b))
			}
		}
	}
}
