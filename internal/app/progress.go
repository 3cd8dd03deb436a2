package app

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"itransfer/internal/transfer"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ProgressPrinter renders compression and upload progress. On a terminal it
// redraws a single line per phase; otherwise it prints every 25%.
type ProgressPrinter struct {
	w           io.Writer
	interactive bool

	mu   sync.Mutex
	last map[transfer.Phase]int
}

func NewProgressPrinter(w io.Writer, interactive bool) *ProgressPrinter {
	return &ProgressPrinter{w: w, interactive: interactive, last: make(map[transfer.Phase]int)}
}

// Update is passed to transfer.Service.OnProgress. A value below the last
// one means the counter was reset (cancel, success or a new submission) and
// is drawn as a fresh start.
func (p *ProgressPrinter) Update(phase transfer.Phase, percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	last, seen := p.last[phase]
	if seen && percent == last {
		return
	}
	restarted := seen && percent < last
	p.last[phase] = percent

	if p.interactive {
		fmt.Fprintf(p.w, "\r%-12s %3d%%", phase, percent)
		if percent == 100 || (restarted && percent == 0) {
			fmt.Fprintln(p.w)
		}
		return
	}

	if !seen || restarted || percent == 100 || percent/25 > last/25 {
		fmt.Fprintf(p.w, "%s %d%%\n", phase, percent)
	}
}
