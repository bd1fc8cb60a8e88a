package spi

import (
	"testing"
	"unsafe"
)

func TestRegisterOffsets(t *testing.T) {
	r := &RegisterFile{}
	base := uintptr(unsafe.Pointer(r))

	cases := []struct {
		name string
		addr uintptr
		want uintptr
	}{
		{"BFPREG", uintptr(unsafe.Pointer(&r.BFPREG)), 0x00},
		{"HSFSTS_CTL", uintptr(unsafe.Pointer(&r.HsfstsCtl)), 0x04},
		{"FADDR", uintptr(unsafe.Pointer(&r.FADDR)), 0x08},
		{"FDATA[0]", uintptr(unsafe.Pointer(&r.FDATA[0])), 0x10},
		{"FREG[0]", uintptr(unsafe.Pointer(&r.FREG[0])), 0x54},
		{"FPR[0]", uintptr(unsafe.Pointer(&r.FPR[0])), 0x84},
		{"GPR", uintptr(unsafe.Pointer(&r.GPR)), 0x98},
		{"SFRACC", uintptr(unsafe.Pointer(&r.SFRACC)), 0xB0},
		{"FDOC", uintptr(unsafe.Pointer(&r.FDOC)), 0xB4},
		{"FDOD", uintptr(unsafe.Pointer(&r.FDOD)), 0xB8},
		{"AFC", uintptr(unsafe.Pointer(&r.AFC)), 0xC0},
		{"SBRS", uintptr(unsafe.Pointer(&r.SBRS)), 0xD4},
	}

	for _, tc := range cases {
		if got := tc.addr - base; got != tc.want {
			t.Errorf("%s at offset %#x, want %#x", tc.name, got, tc.want)
		}
	}
}

func TestRegisterFileSize(t *testing.T) {
	if Size != 0xD8 {
		t.Errorf("Size = %#x, want %#x", Size, 0xD8)
	}
}
