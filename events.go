package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"voiceink/session"
)

// eventSink is the display layer. The terminal UI and the headless console
// receive the same controller events.
type eventSink interface {
	Handle(ev session.Event)
	// Run blocks until ctx is done or the display asks to exit.
	Run(ctx context.Context)
}

type consoleSink struct {
	w   io.Writer
	now func() time.Time
}

func newConsoleSink(w io.Writer) *consoleSink {
	return &consoleSink{w: w, now: time.Now}
}

func (c *consoleSink) Handle(ev session.Event) {
	line := describeEvent(ev)
	if line == "" {
		return
	}
	fmt.Fprintf(c.w, "%s %s\n", c.now().Format("15:04:05"), line)
}

func (c *consoleSink) Run(ctx context.Context) {
	<-ctx.Done()
}

// describeEvent renders ev as one console line, or "" for events that are
// not worth printing.
func describeEvent(ev session.Event) string {
	switch ev := ev.(type) {
	case session.RecordingStarted:
		return fmt.Sprintf("[%s] recording", ev.ID)
	case session.RecordingEnded:
		switch {
		case ev.Cancelled:
			return fmt.Sprintf("[%s] cancelled after %.1fs", ev.ID, ev.Held.Seconds())
		case ev.Truncated:
			return fmt.Sprintf("[%s] stopped after %.1fs (truncated)", ev.ID, ev.Held.Seconds())
		}
		return fmt.Sprintf("[%s] stopped after %.1fs", ev.ID, ev.Held.Seconds())
	case session.TranscriptionCompleted:
		return fmt.Sprintf("[%s] %s", ev.ID, ev.Text)
	case session.StatusMessage:
		if ev.ID == "" {
			return fmt.Sprintf("%s: %s", ev.Level, ev.Text)
		}
		return fmt.Sprintf("[%s] %s: %s", ev.ID, ev.Level, ev.Text)
	}
	return ""
}
