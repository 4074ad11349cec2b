// Package recorder owns one recording session: it opens the capture stream
// on key press, enforces the maximum recording time while audio arrives and
// hands the finished buffer over exactly once.
package recorder

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"voiceink/audio"
	"voiceink/config"
)

type State int32

const (
	Starting State = iota
	Active
	Stopping
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Stopping:
		return "stopping"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// wallClockSlack is how far the monotonic clock may run past MaxRecord
// before the session stops even if the device delivered fewer samples.
const wallClockSlack = time.Second

// Outcome is what a stopped session produced. At most one of TooShort and
// Empty is set; Buffer is non-nil only when neither is.
type Outcome struct {
	Buffer    *audio.Buffer
	Truncated bool
	TooShort  bool
	Empty     bool
}

type Session struct {
	timing    config.Timing
	maxFrames int
	start     time.Time

	stream *audio.Stream
	ready  chan struct{}
	state  atomic.Int32

	truncated     chan struct{}
	truncatedOnce sync.Once
	wasTruncated  atomic.Bool

	finishOnce sync.Once
	buf        *audio.Buffer

	stopOnce sync.Once
	last     Outcome
}

// Start opens the capture stream and begins accumulating. On failure the
// returned error is an *audio.CaptureError.
func Start(ctx audio.Context, cfg audio.StreamConfig, timing config.Timing, observers ...audio.Observer) (*Session, error) {
	s := &Session{
		timing:    timing,
		start:     time.Now(),
		ready:     make(chan struct{}),
		truncated: make(chan struct{}),
	}
	if timing.MaxRecord > 0 {
		s.maxFrames = int(int64(timing.MaxRecord) * int64(cfg.SampleRate) / int64(time.Second))
	}
	s.state.Store(int32(Starting))

	stream, err := audio.Open(ctx, cfg, s.limit, observers...)
	if err != nil {
		s.state.Store(int32(Failed))
		close(s.ready)
		return nil, err
	}
	s.stream = stream
	s.state.Store(int32(Active))
	close(s.ready)
	return s, nil
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Truncated is closed as soon as the maximum recording time is reached.
func (s *Session) Truncated() <-chan struct{} {
	return s.truncated
}

func (s *Session) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Dropped reports frames lost because accumulation fell behind capture.
func (s *Session) Dropped() uint64 {
	<-s.ready
	if s.stream == nil {
		return 0
	}
	return s.stream.Dropped()
}

func (s *Session) limit(f audio.Frame, buffered int) int {
	if s.maxFrames <= 0 {
		return f.Len()
	}
	if time.Since(s.start) > s.timing.MaxRecord+wallClockSlack {
		s.markTruncated()
		return 0
	}
	keep := s.maxFrames - buffered
	if keep >= f.Len() {
		return f.Len()
	}
	s.markTruncated()
	return max(keep, 0)
}

func (s *Session) markTruncated() {
	s.truncatedOnce.Do(func() {
		s.wasTruncated.Store(true)
		close(s.truncated)
		// limit runs on the stream's consumer, which Stream.Stop waits for.
		go s.finish()
	})
}

func (s *Session) finish() {
	s.finishOnce.Do(func() {
		<-s.ready
		if s.stream == nil {
			return
		}
		s.state.CompareAndSwap(int32(Active), int32(Stopping))
		s.buf = s.stream.Stop()
	})
}

// Stop ends the session. held is how long the key was down; shorter than
// the minimum press time discards the audio. Only the first call returns
// the buffer; later calls report the same flags without it.
func (s *Session) Stop(held time.Duration) Outcome {
	var out Outcome
	first := false
	s.stopOnce.Do(func() {
		first = true
		s.finish()

		out.Truncated = s.wasTruncated.Load()
		switch {
		case held < s.timing.MinPress:
			out.TooShort = true
		case s.buf == nil:
			out.Empty = true
		default:
			out.Buffer = s.buf
		}
		s.buf = nil
		s.last = out
		s.last.Buffer = nil
		s.state.Store(int32(Done))
	})
	if first {
		return out
	}
	return s.last
}
