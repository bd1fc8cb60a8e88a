package spi

// HsfStsCtl is the Hardware Sequencing Flash Status and Control register: a
// 32-bit word combining status flags, control flags, and two packed
// subfields (the cycle opcode and the data byte count).
type HsfStsCtl uint32

// Flag bits, matching the controller's documented bit positions.
const (
	FDONE        HsfStsCtl = 1 << 0  // Flash Cycle Done
	FCERR        HsfStsCtl = 1 << 1  // Flash Cycle Error
	HAEL         HsfStsCtl = 1 << 2  // Access Error Log
	HSCIP        HsfStsCtl = 1 << 5  // SPI Cycle In Progress
	WRSDIS       HsfStsCtl = 1 << 11 // Write Status Disable
	PRR34LOCKDN  HsfStsCtl = 1 << 12 // PRR3/PRR4 Lock-Down
	FDOPSS       HsfStsCtl = 1 << 13 // Flash Descriptor Observability Pin-Strap Status
	FDV          HsfStsCtl = 1 << 14 // Flash Descriptor Valid
	FLOCKDN      HsfStsCtl = 1 << 15 // Flash Configuration Lock-Down
	FGO          HsfStsCtl = 1 << 16 // Flash Cycle Go
	WET          HsfStsCtl = 1 << 21 // Write Enable Type
	FSMIE        HsfStsCtl = 1 << 31 // Flash SPI SMI# Enable
)

// FCYCLE occupies bits 20:17; FDBC occupies bits 29:24.
const (
	fcycleShift = 17
	fcycleMask  HsfStsCtl = 0xF << fcycleShift

	fdbcShift = 24
	fdbcMask  HsfStsCtl = 0x3F << fdbcShift
)

// sanitizeMask covers every bit sanitize clears: FGO, FCYCLE, WET, FDBC,
// FSMIE. FDONE/FCERR/H_AEL (write-1-to-clear) and the read-only or
// likely-locked bits are left untouched.
const sanitizeMask = FGO | fcycleMask | WET | fdbcMask | FSMIE

// Cycle extracts the FCYCLE subfield as a CycleOpcode.
func (h HsfStsCtl) Cycle() CycleOpcode {
	return CycleOpcode((h & fcycleMask) >> fcycleShift)
}

// SetCycle returns h with FCYCLE cleared and replaced by op.
func (h HsfStsCtl) SetCycle(op CycleOpcode) HsfStsCtl {
	return (h &^ fcycleMask) | (HsfStsCtl(op)<<fcycleShift)&fcycleMask
}

// Count decodes FDBC as the hardware's documented "count minus one"
// encoding, returning the number of bytes the last data cycle moved.
func (h HsfStsCtl) Count() uint8 {
	return uint8((h&fdbcMask)>>fdbcShift) + 1
}

// SetCount encodes n into FDBC as (clamp(n, 64) - 1) << 24.
//
// The clamp is max(n, 64): any request smaller than 64 is forced up to 64
// before subtracting one. min(n, 64), clamping large requests down to the
// hardware's 64-byte maximum, is almost certainly what was meant. Read and
// Write chunk into 64-byte segments, so the two clamps coincide for every
// full chunk; a shorter final chunk (a 3-byte Read, say) is still encoded
// as 64 bytes. The observed behavior is kept pending verification
// against the datasheet rather than silently corrected.
func (h HsfStsCtl) SetCount(n uint8) HsfStsCtl {
	clamped := n
	if clamped < 64 {
		clamped = 64
	}

	encoded := HsfStsCtl(clamped-1) << fdbcShift

	return (h &^ fdbcMask) | (encoded & fdbcMask)
}

// Sanitize clears FGO, FCYCLE, WET, FDBC, and FSMIE, leaving every other bit
// unchanged: the write-1-to-clear status bits, the read-only status bits,
// and the lock-down bits.
func (h HsfStsCtl) Sanitize() HsfStsCtl {
	return h &^ sanitizeMask
}
