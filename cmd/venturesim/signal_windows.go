//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifySignals registers the shutdown signals that cancel a running
// batch. Windows only delivers os.Interrupt (Ctrl+C); SIGTERM does not
// exist there.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
