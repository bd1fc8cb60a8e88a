package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/smoynes/ichspi/internal/cli"
	"github.com/smoynes/ichspi/internal/firmware"
	"github.com/smoynes/ichspi/internal/flash"
	"github.com/smoynes/ichspi/internal/hostmem"
	"github.com/smoynes/ichspi/internal/log"
	"github.com/smoynes/ichspi/internal/pcie"
	"github.com/smoynes/ichspi/internal/progress"
	"github.com/smoynes/ichspi/internal/spi"
)

// mcfgPath is where Linux exposes the firmware's ACPI MCFG table.
const mcfgPath = "/sys/firmware/acpi/tables/MCFG"

// preserveFlag collects repeated -preserve values into a list of FMAP area
// names.
type preserveFlag []string

func (p *preserveFlag) String() string { return fmt.Sprint([]string(*p)) }

func (p *preserveFlag) Set(value string) error {
	*p = append(*p, value)
	return nil
}

// Flash returns the "flash" sub-command: locate the controller, replace
// its firmware image, and verify.
func Flash() cli.Command {
	return &flashCmd{log: log.DefaultLogger()}
}

type flashCmd struct {
	logLevel slog.Level
	dryRun   bool
	preserve preserveFlag

	log *log.Logger
}

func (flashCmd) Description() string {
	return "replace the device's firmware image"
}

func (flashCmd) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `flash rom-file

Locates the SPI flash controller, reads its current contents, splices in
any preserved regions, reconciles sector by sector against rom-file, and
verifies the result.`)

	return err
}

func (f *flashCmd) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("flash", flag.ExitOnError)
	fs.Func("loglevel", "set log `level`", func(s string) error {
		return f.logLevel.UnmarshalText([]byte(s))
	})
	fs.BoolVar(&f.dryRun, "dry-run", false, "report planned sector actions without issuing cycles")
	fs.Var(&f.preserve, "preserve", "FMAP area `name` to preserve (repeatable)")

	return fs
}

// Run locates the controller, replaces its image with the one named by
// args[0], and verifies the result. Exit codes follow the CLI-wide
// convention: 1 for an argument error, 2 for a flash or verify failure.
func (f *flashCmd) Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int {
	log.LogLevel.Set(f.logLevel)

	if len(args) != 1 {
		logger.Error("flash: expected exactly one argument, the path to the new ROM image")
		return 1
	}

	newImage, err := os.ReadFile(args[0])
	if err != nil {
		logger.Error("flash: read rom file", "err", err)
		return 1
	}

	dev, closeDevice, err := openDevice(logger)
	if err != nil {
		logger.Error("flash: locate device", "err", err)
		return 2
	}
	defer closeDevice()

	reporter := progress.NewReporter(os.Stderr)

	opts := flash.Options{
		Preserve: []string(f.preserve),
		DryRun:   f.dryRun,
	}

	if err := flash.Replace(ctx, dev, newImage, firmware.FMAP{}, firmware.Descriptor{}, opts, reporter); err != nil {
		logger.Error("flash: replace", "err", err)
		return 2
	}

	fmt.Fprintln(out, "flash: done")

	return 0
}

// openDevice locates the controller via the host's MCFG table and /dev/mem,
// and returns an open *spi.Device along with a function that tears it down
// (unmaps the register file, then closes /dev/mem) exactly once.
func openDevice(logger *log.Logger) (*spi.Device, func(), error) {
	mcfg, err := os.ReadFile(mcfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read mcfg: %w", err)
	}

	mapper, err := hostmem.OpenDevMem()
	if err != nil {
		return nil, nil, err
	}

	result, err := pcie.Locate(mapper, mcfg)
	if err != nil {
		_ = mapper.Close()
		return nil, nil, err
	}

	logger.Info("located controller", "name", result.Name, "base", fmt.Sprintf("%#x", result.Base))

	dev, err := spi.Open(mapper, hostmem.PhysicalAddress(result.Base))
	if err != nil {
		_ = mapper.Close()
		return nil, nil, err
	}

	return dev, func() {
		if err := dev.Close(); err != nil {
			logger.Error("flash: unmap device", "err", err)
		}

		if err := mapper.Close(); err != nil {
			logger.Error("flash: close /dev/mem", "err", err)
		}
	}, nil
}
