package app

import (
	"fmt"
	"io"
	"sync"

	"itransfer/internal/transfer"
)

// TerminalNotifier prints user-facing notices, one per line, prefixed with
// their level.
type TerminalNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

var _ transfer.Notifier = (*TerminalNotifier)(nil)

func NewTerminalNotifier(w io.Writer) *TerminalNotifier {
	return &TerminalNotifier{w: w}
}

func (n *TerminalNotifier) Info(msg string)    { n.print("info", msg) }
func (n *TerminalNotifier) Success(msg string) { n.print("success", msg) }
func (n *TerminalNotifier) Warning(msg string) { n.print("warning", msg) }
func (n *TerminalNotifier) Error(msg string)   { n.print("error", msg) }

func (n *TerminalNotifier) print(level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s: %s\n", level, msg)
}
