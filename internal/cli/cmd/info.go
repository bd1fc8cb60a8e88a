package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/smoynes/ichspi/internal/cli"
	"github.com/smoynes/ichspi/internal/log"
)

// Info returns the "info" sub-command: locate the controller and print its
// capacity, MMIO base, and current status/control register, without
// touching the flash array.
func Info() cli.Command {
	return &infoCmd{log: log.DefaultLogger()}
}

type infoCmd struct {
	log *log.Logger
}

func (infoCmd) Description() string {
	return "print the controller's capacity, base address, and status"
}

func (infoCmd) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `info

Locates the SPI flash controller and prints its capacity, MMIO base, and
current HSFSTS_CTL, without touching the flash array.`)

	return err
}

func (infoCmd) FlagSet() *cli.FlagSet {
	return flag.NewFlagSet("info", flag.ExitOnError)
}

func (c *infoCmd) Run(_ context.Context, _ []string, out io.Writer, logger *log.Logger) int {
	dev, closeDevice, err := openDevice(logger)
	if err != nil {
		logger.Error("info: locate device", "err", err)
		return 2
	}
	defer closeDevice()

	capacity, err := dev.Capacity()
	if err != nil {
		logger.Error("info: capacity", "err", err)
		return 2
	}

	fmt.Fprintf(out, "capacity: %d MB\n", capacity/(1024*1024))
	fmt.Fprintf(out, "hsfsts_ctl: %#010x\n", uint32(dev.HsfStsCtl()))

	return 0
}
