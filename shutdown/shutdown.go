// Package shutdown maps the platform's termination signals onto context
// cancellation.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
)

// Notify relays termination signals to ch.
func Notify(ch chan<- os.Signal) {
	signal.Notify(ch, signals...)
}

// OnSignal returns a context that is cancelled on the first termination
// signal. onSignal, if set, runs once with the received signal before the
// cancellation. stop releases the signal registration.
func OnSignal(parent context.Context, onSignal func(os.Signal)) (ctx context.Context, stop context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	Notify(ch)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			if onSignal != nil {
				onSignal(sig)
			}
			cancel()
		case <-done:
		}
	}()
	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
			cancel()
		})
	}
}
