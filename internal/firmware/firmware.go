// Package firmware reads the two self-describing structures a firmware
// image may carry: the coreboot Flash Map (FMAP), a named-region directory
// embedded somewhere in the image, and the Intel Flash Descriptor at the
// start of the ROM. Both are consulted only to find regions worth
// preserving across a flash; nothing here modifies an image, and an image
// without either structure is not an error.
package firmware

import (
	"bytes"
	"encoding/binary"

	"github.com/smoynes/ichspi/internal/flash"
)

// fmapSignature begins an FMAP header. The header may sit anywhere in the
// image.
var fmapSignature = []byte("__FMAP__")

// FMAP header: signature[8], ver_major, ver_minor, base u64, size u32,
// name[32], nareas u16. Each area record: offset u32, size u32, name[32],
// flags u16.
const (
	fmapHeaderSize   = 56
	fmapNareasOffset = 54
	fmapAreaSize     = 42
	fmapNameSize     = 32
)

// FMAP looks up named areas in an image's coreboot Flash Map. It implements
// flash.FirmwareLayout.
type FMAP struct{}

var _ flash.FirmwareLayout = FMAP{}

// Area scans image for an FMAP header and returns the area called name, if
// both exist.
func (FMAP) Area(image []byte, name string) (flash.Area, bool) {
	off := bytes.Index(image, fmapSignature)
	if off < 0 || off+fmapHeaderSize > len(image) {
		return flash.Area{}, false
	}

	hdr := image[off:]
	nareas := int(binary.LittleEndian.Uint16(hdr[fmapNareasOffset:]))

	for i := 0; i < nareas; i++ {
		start := fmapHeaderSize + i*fmapAreaSize
		if start+fmapAreaSize > len(hdr) {
			return flash.Area{}, false
		}

		rec := hdr[start:]

		if cstring(rec[8:8+fmapNameSize]) != name {
			continue
		}

		return flash.Area{
			Name:   name,
			Offset: int(binary.LittleEndian.Uint32(rec[0:])),
			Size:   int(binary.LittleEndian.Uint32(rec[4:])),
		}, true
	}

	return flash.Area{}, false
}

// cstring returns the bytes before the first NUL as a string.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b)
}

// The descriptor's signature sits at 0x10, followed by FLMAP0 at 0x14.
// FLMAP0 bits 23:16 hold the Flash Region Base Address in 16-byte units;
// each FLREG word there packs a region's base (bits 14:0) and limit (bits
// 30:16), both in 4 KiB units. A region whose base exceeds its limit is
// unused.
const (
	descriptorSigOffset = 0x10
	descriptorSignature = 0x0FF0A55A

	regionGbE = 3
)

// Descriptor looks up regions in the Intel Flash Descriptor at the start of
// an image. It implements flash.DescriptorRegions.
type Descriptor struct{}

var _ flash.DescriptorRegions = Descriptor{}

// Ethernet returns the GbE region's extent, if the image carries a valid
// descriptor and the region is in use.
func (Descriptor) Ethernet(image []byte) (flash.Area, bool) {
	return descriptorRegion(image, regionGbE, "ethernet")
}

func descriptorRegion(image []byte, region int, name string) (flash.Area, bool) {
	if len(image) < descriptorSigOffset+8 {
		return flash.Area{}, false
	}

	if binary.LittleEndian.Uint32(image[descriptorSigOffset:]) != descriptorSignature {
		return flash.Area{}, false
	}

	flmap0 := binary.LittleEndian.Uint32(image[descriptorSigOffset+4:])
	frba := int(flmap0>>16&0xFF) << 4

	regOffset := frba + region*4
	if regOffset+4 > len(image) {
		return flash.Area{}, false
	}

	flreg := binary.LittleEndian.Uint32(image[regOffset:])

	base := int(flreg&0x7FFF) << 12
	limit := int(flreg>>16&0x7FFF)<<12 | 0xFFF

	if base > limit {
		return flash.Area{}, false
	}

	return flash.Area{Name: name, Offset: base, Size: limit + 1 - base}, true
}
