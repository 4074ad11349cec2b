package transcriber

import (
	"context"
	"sync/atomic"
	"time"
)

// Fake returns a fixed transcript after an optional delay. Segments and
// RateLimit are passed through as a verbose response would carry them.
type Fake struct {
	Text      string
	Err       error
	Delay     time.Duration
	Segments  []Segment
	RateLimit string

	calls atomic.Int32
}

func NewFake(text string, err error) *Fake {
	return &Fake{Text: text, Err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Calls() int { return int(f.calls.Load()) }

func (f *Fake) Transcribe(ctx context.Context, req Request) (*Result, error) {
	f.calls.Add(1)
	if f.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, &Error{Provider: "fake", Err: ctx.Err()}
		case <-time.After(f.Delay):
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	r := &Result{
		Text:      f.Text,
		Metrics:   &NetworkMetrics{Total: 10 * time.Millisecond, TTFB: 10 * time.Millisecond},
		Attempts:  1,
		RateLimit: f.RateLimit,
		Segments:  f.Segments,
	}
	for _, s := range f.Segments {
		r.NoSpeechProb = max(r.NoSpeechProb, s.NoSpeechProb)
	}
	return r, nil
}
