package main

import (
	"context"
	"testing"

	"github.com/smoynes/ichspi/internal/cli"
	"github.com/smoynes/ichspi/internal/cli/cmd"
)

func TestCommandsRegisterDistinctNames(t *testing.T) {
	seen := map[string]bool{}

	for _, c := range commands {
		name := c.FlagSet().Name()
		if seen[name] {
			t.Fatalf("duplicate command name %q", name)
		}

		seen[name] = true
	}

	for _, want := range []string{"flash", "info"} {
		if !seen[want] {
			t.Errorf("commands missing %q", want)
		}
	}
}

func TestExecuteHelp(t *testing.T) {
	code := newCommander().Execute([]string{"help"})
	if code != 0 {
		t.Errorf("Execute(help) = %d, want 0", code)
	}
}

func TestExecuteUnknownCommandFallsBackToHelp(t *testing.T) {
	code := newCommander().Execute([]string{"bogus"})
	if code != 0 {
		t.Errorf("Execute(bogus) = %d, want 0 (falls back to help)", code)
	}
}

func TestExecuteNoArgs(t *testing.T) {
	code := newCommander().Execute(nil)
	if code != 1 {
		t.Errorf("Execute(nil) = %d, want 1", code)
	}
}

func newCommander() *cli.Commander {
	return cli.New(context.Background()).
		WithCommands(commands).
		WithHelp(cmd.Help(commands))
}
