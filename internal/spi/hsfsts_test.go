package spi

import "testing"

func TestSetCycleRoundTrip(t *testing.T) {
	ops := []CycleOpcode{
		CycleRead, cycleRsvd1, CycleWrite, CycleBlockErase, CycleSectorErase,
		CycleReadSfdp, CycleReadJedec, CycleReadStatus, CycleWriteStatus,
		CycleRpmcOp1, CycleRpmcOp2, CycleRsvd,
	}

	var h HsfStsCtl

	for _, op := range ops {
		h = h.SetCycle(op)

		if got := h.Cycle(); got != op {
			t.Errorf("SetCycle(%v); Cycle() = %v", op, got)
		}
	}
}

func TestSetCountClampBug(t *testing.T) {
	// Every value from 1 to 64 clamps up to 64 before the "count minus one"
	// encoding, reproducing the observed max(value, 64) bug: count()
	// reports 64 regardless of what was requested.
	var h HsfStsCtl

	for n := uint8(1); n <= 64; n++ {
		h = h.SetCount(n)

		if got := h.Count(); got != 64 {
			t.Errorf("SetCount(%d); Count() = %d, want 64 (clamp bug)", n, got)
		}
	}

	// Above 64, the clamp is a no-op and (n-1) is truncated to FDBC's six
	// bits before Count adds one back.
	for _, tc := range []struct{ n, want uint8 }{
		{65, 1},
		{100, 36},
		{255, 63},
	} {
		h = h.SetCount(tc.n)

		if got := h.Count(); got != tc.want {
			t.Errorf("SetCount(%d); Count() = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	preserved := FDONE | FCERR | HAEL | HSCIP | WRSDIS | PRR34LOCKDN | FDOPSS | FDV | FLOCKDN

	h := preserved | FGO | WET | FSMIE
	h = h.SetCycle(CycleWrite)
	h = h.SetCount(64)

	got := h.Sanitize()

	if got&preserved != preserved {
		t.Errorf("Sanitize() cleared a preserved bit: got %#032b, want at least %#032b", got, preserved)
	}

	if got&(FGO|WET|FSMIE) != 0 {
		t.Errorf("Sanitize() left FGO/WET/FSMIE set: %#032b", got)
	}

	if got.Cycle() != CycleRead {
		t.Errorf("Sanitize() left FCYCLE = %v, want %v (zero value)", got.Cycle(), CycleRead)
	}

	if got&fdbcMask != 0 {
		t.Errorf("Sanitize() left FDBC set: %#032b", got)
	}
}

func TestFDOC(t *testing.T) {
	got := fdoc(FdoComponent, 0)
	want := uint32(FdoComponent) << 12

	if got != want {
		t.Errorf("fdoc(Component, 0) = %#x, want %#x", got, want)
	}

	got = fdoc(FdoRegion, 5)
	want = uint32(FdoRegion)<<12 | 5<<2

	if got != want {
		t.Errorf("fdoc(Region, 5) = %#x, want %#x", got, want)
	}
}
