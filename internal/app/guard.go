package app

import (
	"os"
	"sync"

	"itransfer/internal/transfer"
)

// MsgExitWarning is shown on the first interrupt while work is in flight.
const MsgExitWarning = "A transfer is in progress. Press Ctrl-C again to cancel it."

// exitGuarded is the part of transfer.Service the exit guard needs.
type exitGuarded interface {
	ShouldWarnOnExit() bool
	Cancel() bool
}

// WatchInterrupts handles interrupt signals for a running command. While an
// archive is being built or an upload is partway through, the first signal
// only warns; the next one cancels the upload and then stop. Otherwise every
// signal calls stop. The returned func ends the watch.
func WatchInterrupts(signals <-chan os.Signal, svc exitGuarded, notifier transfer.Notifier, stop func()) func() {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		warned := false
		for {
			select {
			case <-done:
				return
			case <-signals:
				if svc.ShouldWarnOnExit() && !warned {
					warned = true
					notifier.Warning(MsgExitWarning)
					continue
				}
				svc.Cancel()
				stop()
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}
