// Package progress reports flashing progress to a writer, choosing between
// carriage-return in-place updates on a terminal and plain newline-per-line
// output otherwise.
package progress

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const megabyte = 1024 * 1024

// Reporter creates named phases that report progress against a single
// underlying writer.
type Reporter struct {
	out system
	tty bool
}

// system is the subset of *os.File a Reporter needs; narrowed so tests can
// supply a plain io.Writer without a real file descriptor.
type system interface {
	io.Writer
}

// NewReporter returns a Reporter that writes to out. If out is an *os.File
// attached to a terminal, phases use \r for in-place updates; otherwise
// every update is terminated with \n.
func NewReporter(out *os.File) Reporter {
	tty := false

	if out != nil {
		tty = term.IsTerminal(int(out.Fd()))
	}

	return Reporter{out: out, tty: tty}
}

// Phase starts a named phase of work (e.g. "read", "write", "verify").
func (r Reporter) Phase(name string) Phase {
	return Phase{name: name, out: r.out, tty: r.tty}
}

// Phase reports progress for one stage of a larger operation, printing at
// most once per completed megabyte.
type Phase struct {
	name      string
	out       system
	tty       bool
	lastPrint int
}

// Update reports that offset of total bytes have been processed so far. It
// prints when the completed-megabyte count changes and when offset reaches
// total, so a full-image pass emits one line per megabyte rather than one
// per sector.
func (p *Phase) Update(offset, total int) {
	if p.out == nil {
		return
	}

	mb := offset / megabyte
	if mb == p.lastPrint && offset != total {
		return
	}

	p.lastPrint = mb

	line := fmt.Sprintf("%s: %d MB", p.name, mb)
	p.write(line)
}

// Done terminates the phase's progress line.
func (p *Phase) Done() {
	if p.out == nil {
		return
	}

	if p.tty {
		fmt.Fprintln(p.out)
	}
}

// Logf reports a one-off diagnostic line belonging to this phase (e.g. a
// preserved-area copy, or a mismatch report). It always ends with a
// newline, regardless of terminal detection.
func (p *Phase) Logf(format string, args ...any) {
	if p.out == nil {
		return
	}

	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Phase) write(line string) {
	if p.tty {
		fmt.Fprintf(p.out, "\r%s", line)
	} else {
		fmt.Fprintln(p.out, line)
	}
}
