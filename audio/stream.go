package audio

import (
	"sync"
	"sync/atomic"
)

type StreamConfig struct {
	SampleRate int
	Channels   int
	// FrameSize is the number of sample frames per emitted Frame.
	FrameSize int
	// QueueSize bounds the capture-to-consumer channel, in frames. When it
	// is full the oldest queued frame is dropped.
	QueueSize int
	Device    *DeviceInfo
}

// Observer sees every frame on the capture goroutine. Observe must do
// bounded work and must not block.
type Observer interface {
	Observe(Frame)
}

// Limiter runs on the consumer goroutine before a frame is appended and
// returns how many sample frames of f to keep, given how many are already
// buffered. Keeping fewer than f.Len() ends accumulation for the stream.
type Limiter func(f Frame, buffered int) int

// Stream turns device callbacks into fixed-length frames. The capture
// callback produces onto a bounded channel; a consumer goroutine drains it
// into a Buffer, so the device thread never waits on the consumer.
type Stream struct {
	cfg       StreamConfig
	dev       CaptureDevice
	observers []Observer
	limit     Limiter

	frames  chan Frame
	dropped atomic.Uint64
	stopped atomic.Bool

	mu      sync.Mutex
	pending []int16
	closed  bool

	buf  *Buffer
	done chan struct{}
}

// Open starts capturing from ctx. Failures are returned as *CaptureError.
func Open(ctx Context, cfg StreamConfig, limit Limiter, observers ...Observer) (*Stream, error) {
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = 256
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	dev, err := ctx.NewCapture(cfg.Device, CaptureConfig{
		SampleRate: uint32(cfg.SampleRate),
		Channels:   uint32(cfg.Channels),
	})
	if err != nil {
		return nil, &CaptureError{Op: "open", Err: err}
	}

	s := &Stream{
		cfg:       cfg,
		dev:       dev,
		observers: observers,
		limit:     limit,
		frames:    make(chan Frame, cfg.QueueSize),
		pending:   make([]int16, 0, cfg.FrameSize*cfg.Channels*2),
		buf:       NewBuffer(cfg.SampleRate, cfg.Channels),
		done:      make(chan struct{}),
	}
	go s.drain()

	dev.SetCallback(s.onData)
	if err := dev.Start(); err != nil {
		dev.ClearCallback()
		dev.Close()
		s.stopped.Store(true)
		s.mu.Lock()
		s.closed = true
		close(s.frames)
		s.mu.Unlock()
		<-s.done
		return nil, &CaptureError{Op: "start", Err: err}
	}
	return s, nil
}

func (s *Stream) onData(data []byte, _ uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.pending = decodePCM16(s.pending, data)
	n := s.cfg.FrameSize * s.cfg.Channels
	off := 0
	for len(s.pending)-off >= n {
		samples := make([]int16, n)
		copy(samples, s.pending[off:off+n])
		off += n
		s.emitLocked(Frame{Samples: samples, Channels: s.cfg.Channels})
	}
	s.pending = append(s.pending[:0], s.pending[off:]...)
}

func (s *Stream) emitLocked(f Frame) {
	for _, o := range s.observers {
		o.Observe(f)
	}
	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case <-s.frames:
			s.dropped.Add(1)
		default:
		}
	}
}

func (s *Stream) drain() {
	defer close(s.done)
	accepting := true
	for f := range s.frames {
		if !accepting {
			continue
		}
		keep := f.Len()
		if s.limit != nil {
			keep = min(s.limit(f, s.buf.Frames()), f.Len())
		}
		if keep < f.Len() {
			accepting = false
			if keep <= 0 {
				continue
			}
			f = Frame{Samples: f.Samples[:keep*f.Channels], Channels: f.Channels}
		}
		s.buf.Append(f)
	}
}

// Stop stops the device, flushes the trailing partial frame and returns
// everything accumulated. It returns nil when no frames were captured, and
// nil on every call after the first.
func (s *Stream) Stop() *Buffer {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	s.dev.ClearCallback()
	s.dev.Stop()
	s.dev.Close()

	s.mu.Lock()
	if rem := len(s.pending) - len(s.pending)%s.cfg.Channels; rem > 0 {
		tail := make([]int16, rem)
		copy(tail, s.pending[:rem])
		s.emitLocked(Frame{Samples: tail, Channels: s.cfg.Channels})
	}
	s.pending = nil
	s.closed = true
	close(s.frames)
	s.mu.Unlock()

	<-s.done
	if s.buf.Frames() == 0 {
		return nil
	}
	buf := s.buf
	s.buf = nil
	return buf
}

// Dropped returns how many frames were discarded because the consumer fell
// behind.
func (s *Stream) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Stream) Config() StreamConfig {
	return s.cfg
}
