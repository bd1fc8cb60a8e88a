package firmware

import (
	"encoding/binary"
	"testing"
)

// buildFMAP assembles an FMAP header plus area records into image at off.
func buildFMAP(image []byte, off int, areas []struct {
	name         string
	offset, size uint32
}) {
	copy(image[off:], "__FMAP__")
	image[off+8] = 1 // ver_major
	image[off+9] = 1 // ver_minor
	binary.LittleEndian.PutUint64(image[off+10:], 0)
	binary.LittleEndian.PutUint32(image[off+18:], uint32(len(image)))
	copy(image[off+22:], "FLASH")
	binary.LittleEndian.PutUint16(image[off+54:], uint16(len(areas)))

	rec := off + fmapHeaderSize
	for _, a := range areas {
		binary.LittleEndian.PutUint32(image[rec:], a.offset)
		binary.LittleEndian.PutUint32(image[rec+4:], a.size)
		copy(image[rec+8:rec+8+fmapNameSize], a.name)
		binary.LittleEndian.PutUint16(image[rec+40:], 0)
		rec += fmapAreaSize
	}
}

func TestFMAPArea(t *testing.T) {
	image := make([]byte, 8192)
	buildFMAP(image, 0x800, []struct {
		name         string
		offset, size uint32
	}{
		{"COREBOOT", 0x0000, 0x1000},
		{"RW_MRC_CACHE", 0x1000, 0x800},
	})

	area, ok := FMAP{}.Area(image, "RW_MRC_CACHE")
	if !ok {
		t.Fatal("Area(RW_MRC_CACHE) not found")
	}

	if area.Offset != 0x1000 || area.Size != 0x800 {
		t.Errorf("Area = %+v, want offset 0x1000 size 0x800", area)
	}

	if _, ok := (FMAP{}).Area(image, "SMMSTORE"); ok {
		t.Error("Area(SMMSTORE) found, want absent")
	}
}

func TestFMAPMissing(t *testing.T) {
	if _, ok := (FMAP{}).Area(make([]byte, 4096), "COREBOOT"); ok {
		t.Error("Area found in an image with no FMAP")
	}
}

// buildDescriptor assembles a minimal flash descriptor: signature, FLMAP0
// pointing the region table at frba, and a GbE FLREG covering [base,
// limit].
func buildDescriptor(image []byte, frba int, base, limit uint32) {
	binary.LittleEndian.PutUint32(image[0x10:], descriptorSignature)
	binary.LittleEndian.PutUint32(image[0x14:], uint32(frba>>4)<<16)
	binary.LittleEndian.PutUint32(image[frba+regionGbE*4:], limit>>12<<16|base>>12)
}

func TestDescriptorEthernet(t *testing.T) {
	image := make([]byte, 8192)
	buildDescriptor(image, 0x40, 0x1000, 0x1FFF)

	area, ok := Descriptor{}.Ethernet(image)
	if !ok {
		t.Fatal("Ethernet region not found")
	}

	if area.Offset != 0x1000 || area.Size != 0x1000 {
		t.Errorf("Ethernet = %+v, want offset 0x1000 size 0x1000", area)
	}
}

func TestDescriptorEthernetUnused(t *testing.T) {
	image := make([]byte, 8192)
	// base 0x7FFF000 above limit 0xFFF marks the region unused.
	binary.LittleEndian.PutUint32(image[0x10:], descriptorSignature)
	binary.LittleEndian.PutUint32(image[0x14:], uint32(0x40>>4)<<16)
	binary.LittleEndian.PutUint32(image[0x40+regionGbE*4:], 0x7FFF)

	if _, ok := (Descriptor{}).Ethernet(image); ok {
		t.Error("Ethernet found, want unused")
	}
}

func TestDescriptorMissingSignature(t *testing.T) {
	if _, ok := (Descriptor{}).Ethernet(make([]byte, 4096)); ok {
		t.Error("Ethernet found in an image with no descriptor")
	}
}
