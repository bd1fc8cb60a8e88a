// Package flash implements the sector-granular procedure that replaces a
// device's firmware image: read current contents, splice in preserved
// regions, reconcile sector by sector against the new image issuing only
// the erase/write cycles that are needed, then verify.
package flash

import (
	"context"
	"errors"
	"fmt"

	"github.com/smoynes/ichspi/internal/progress"
	"github.com/smoynes/ichspi/internal/spi"
)

// sectorSize is the controller's erase granularity. NOR flash cells can
// only be programmed 1→0; a sector must be erased to all-1s before
// arbitrary new contents can be written.
const (
	sectorSize = 4096
	eraseByte  = 0xFF
)

// ErrSizeMismatch is returned when the new image's length does not equal
// the device's reported capacity.
var ErrSizeMismatch = errors.New("flash: image size does not match device capacity")

// ErrVerify is the sentinel wrapped by VerifyError, so callers can test
// with errors.Is(err, flash.ErrVerify) without matching the full message.
var ErrVerify = errors.New("flash: verification failed")

// VerifyError reports a byte mismatch found while re-reading the device
// after a replace completed.
type VerifyError struct {
	Address  int
	Actual   byte
	Expected byte
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s: at %#x: got %#02x, want %#02x", ErrVerify, e.Address, e.Actual, e.Expected)
}

func (e *VerifyError) Is(err error) bool {
	if err == ErrVerify { //nolint:errorlint
		return true
	}

	_, ok := err.(*VerifyError)

	return ok
}

// Area is a named, sized region of the firmware image, as FMAP or the
// Flash Descriptor describe it.
type Area struct {
	Name   string
	Offset int
	Size   int
}

// FirmwareLayout looks up FMAP areas in a firmware image. A nil
// FirmwareLayout is legal: Replace simply skips FMAP-based preservation.
type FirmwareLayout interface {
	Area(image []byte, name string) (Area, bool)
}

// DescriptorRegions looks up Flash Descriptor regions in a firmware image.
// A nil DescriptorRegions is legal: Replace simply skips descriptor-based
// preservation.
type DescriptorRegions interface {
	Ethernet(image []byte) (Area, bool)
}

// Options configures a Replace call.
type Options struct {
	// Preserve lists FMAP area names to copy from the current image into
	// the new one before reconciling. Empty by default: RW_MRC_CACHE and
	// SMMSTORE are documented candidates but copying them can brick the
	// system, so nothing is preserved unless the caller asks.
	Preserve []string

	// DryRun reports planned sector actions without issuing any erase or
	// write cycles.
	DryRun bool
}

// Replace reads the device's current image, splices in any preserved
// regions, reconciles sector by sector against newImage issuing only the
// erase/write cycles needed, then verifies the result byte for byte.
func Replace(
	ctx context.Context,
	dev spi.Spi,
	newImage []byte,
	layout FirmwareLayout,
	regions DescriptorRegions,
	opts Options,
	reporter progress.Reporter,
) error {
	capacity, err := dev.Capacity()
	if err != nil {
		return fmt.Errorf("flash: capacity: %w", err)
	}

	if len(newImage) != capacity {
		return fmt.Errorf("%w: image is %d bytes, device is %d", ErrSizeMismatch, len(newImage), capacity)
	}

	current := make([]byte, capacity)
	if err := readAll(dev, current, reporter.Phase("read")); err != nil {
		return fmt.Errorf("flash: read current image: %w", err)
	}

	splice(current, newImage, layout, regions, opts.Preserve, reporter.Phase("splice"))

	if err := reconcile(ctx, dev, current, newImage, opts, reporter.Phase("write")); err != nil {
		return fmt.Errorf("flash: reconcile: %w", err)
	}

	// A dry run issued no cycles, so the device still holds its old
	// contents; there is nothing to verify.
	if opts.DryRun {
		return nil
	}

	if err := verify(dev, newImage, reporter.Phase("verify")); err != nil {
		return err
	}

	return nil
}

// readAll fills buf from dev in sectorSize chunks, reporting progress once
// per megabyte.
func readAll(dev spi.Spi, buf []byte, p progress.Phase) error {
	for offset := 0; offset < len(buf); {
		n := sectorSize
		if offset+n > len(buf) {
			n = len(buf) - offset
		}

		read, err := dev.Read(offset, buf[offset:offset+n])
		if err != nil {
			return err
		}

		offset += read
		p.Update(offset, len(buf))
	}

	p.Done()

	return nil
}

// splice copies preserved regions from current into newImage in place:
// first the descriptor's Ethernet region, if regions is non-nil and the
// region is present in both images, then each named FMAP area in
// preserve, if layout is non-nil and the area is present in both with
// matching size. Mismatches are reported through p but are not fatal.
func splice(current, newImage []byte, layout FirmwareLayout, regions DescriptorRegions, preserve []string, p progress.Phase) {
	if regions != nil {
		if newArea, okNew := regions.Ethernet(newImage); okNew {
			if oldArea, okOld := regions.Ethernet(current); okOld {
				copyArea(current, newImage, oldArea, newArea, "ethernet", p)
			} else {
				p.Logf("ethernet: found in new image, not in current; not copied")
			}
		}
	}

	if layout != nil {
		for _, name := range preserve {
			newArea, okNew := layout.Area(newImage, name)
			if !okNew {
				continue
			}

			oldArea, okOld := layout.Area(current, name)
			if !okOld {
				p.Logf("%s: found in new image, not in current; not copied", name)
				continue
			}

			copyArea(current, newImage, oldArea, newArea, name, p)
		}
	}

	p.Done()
}

func copyArea(current, newImage []byte, oldArea, newArea Area, name string, p progress.Phase) {
	if oldArea.Size != newArea.Size {
		p.Logf("%s: size mismatch, old %d bytes, new %d bytes; not copied", name, oldArea.Size, newArea.Size)
		return
	}

	copy(newImage[newArea.Offset:newArea.Offset+newArea.Size], current[oldArea.Offset:oldArea.Offset+oldArea.Size])
	p.Logf("%s: preserved %d bytes", name, newArea.Size)
}

// reconcile walks current and newImage in lock-step, sectorSize bytes at a
// time. A sector that already matches is skipped. A sector that differs is
// erased; if the new sector is not entirely erase bytes, it is also
// written.
func reconcile(ctx context.Context, dev spi.Spi, current, newImage []byte, opts Options, p progress.Phase) error {
	for offset := 0; offset < len(newImage); offset += sectorSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := offset + sectorSize
		if end > len(newImage) {
			end = len(newImage)
		}

		oldSector := current[offset:end]
		newSector := newImage[offset:end]

		matching, erased := compareSector(oldSector, newSector)

		switch {
		case matching:
			// nothing to do
		case opts.DryRun:
			if erased {
				p.Logf("dry-run: would erase sector at %#x", offset)
			} else {
				p.Logf("dry-run: would erase+write sector at %#x", offset)
			}
		default:
			if err := dev.Erase(offset); err != nil {
				return fmt.Errorf("erase %#x: %w", offset, err)
			}

			if !erased {
				if _, err := dev.Write(offset, newSector); err != nil {
					return fmt.Errorf("write %#x: %w", offset, err)
				}
			}
		}

		p.Update(end, len(newImage))
	}

	p.Done()

	return nil
}

// compareSector reports, in a single pass, whether old and new are
// byte-identical (matching) and whether new is entirely eraseByte
// (erased).
func compareSector(old, new []byte) (matching, erased bool) {
	matching, erased = true, true

	for i := range new {
		if new[i] != old[i] {
			matching = false
		}

		if new[i] != eraseByte {
			erased = false
		}
	}

	return matching, erased
}

// verify re-reads the device and compares it byte for byte against
// newImage. The first mismatch found is fatal.
func verify(dev spi.Spi, newImage []byte, p progress.Phase) error {
	buf := make([]byte, sectorSize)

	for offset := 0; offset < len(newImage); {
		n := sectorSize
		if offset+n > len(newImage) {
			n = len(newImage) - offset
		}

		read, err := dev.Read(offset, buf[:n])
		if err != nil {
			return fmt.Errorf("flash: verify: read %#x: %w", offset, err)
		}

		for i := 0; i < read; i++ {
			if buf[i] != newImage[offset+i] {
				return &VerifyError{
					Address:  offset + i,
					Actual:   buf[i],
					Expected: newImage[offset+i],
				}
			}
		}

		offset += read
		p.Update(offset, len(newImage))
	}

	p.Done()

	return nil
}
