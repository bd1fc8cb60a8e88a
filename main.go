// ichspi is the command-line interface to the hardware-sequencing SPI
// flash driver and flashing utility.
package main

import (
	"context"
	"os"

	"github.com/smoynes/ichspi/internal/cli"
	"github.com/smoynes/ichspi/internal/cli/cmd"
)

var commands = []cli.Command{
	cmd.Flash(),
	cmd.Info(),
}

// Entry point.
func main() {
	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
