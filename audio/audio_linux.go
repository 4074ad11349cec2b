//go:build linux

package audio

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
)

// captureLatency is the buffering requested from the server, in seconds.
// It must stay well under one frame of a session so level meters stay live.
const captureLatency = 0.02

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("connect to pulse server: %w", err)
	}
	return &pulseContext{client: c}, nil
}

func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("list pulse sources: %w", err)
	}
	devices := make([]DeviceInfo, 0, len(sources))
	for _, s := range sources {
		devices = append(devices, DeviceInfo{ID: s.ID(), Name: s.Name()})
	}
	return devices, nil
}

func (p *pulseContext) NewCapture(device *DeviceInfo, cfg CaptureConfig) (CaptureDevice, error) {
	opts := []pulse.RecordOption{
		pulse.RecordSampleRate(int(cfg.SampleRate)),
		pulse.RecordLatency(captureLatency),
	}
	switch cfg.Channels {
	case 0, 1:
		opts = append(opts, pulse.RecordMono)
	case 2:
		opts = append(opts, pulse.RecordStereo)
	default:
		return nil, fmt.Errorf("pulse capture supports 1 or 2 channels, got %d", cfg.Channels)
	}
	if device != nil {
		source, err := p.client.SourceByID(device.ID)
		if err != nil {
			return nil, fmt.Errorf("pulse source %q: %w", device.Name, err)
		}
		opts = append(opts, pulse.RecordSource(source))
	}
	return &pulseCapture{client: p.client, opts: opts, channels: max(int(cfg.Channels), 1)}, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

// pulseCapture creates its record stream lazily on Start so that a capture
// that is never started holds no server resources.
type pulseCapture struct {
	client   *pulse.Client
	opts     []pulse.RecordOption
	channels int
	callback atomic.Pointer[DataCallback]

	mu      sync.Mutex
	stream  *pulse.RecordStream
	closed  bool
	scratch []byte
}

func (c *pulseCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errCaptureClosed
	}
	if c.stream != nil {
		return nil
	}

	stream, err := c.client.NewRecord(pulse.Int16Writer(c.write), c.opts...)
	if err != nil {
		return fmt.Errorf("open pulse record stream: %w", err)
	}
	if err := stream.Error(); err != nil {
		stream.Close()
		return fmt.Errorf("pulse record stream: %w", err)
	}
	stream.Start()
	c.stream = stream
	return nil
}

// write runs on the pulse client goroutine. scratch is reused because the
// callback consumes data before returning.
func (c *pulseCapture) write(buf []int16) (int, error) {
	cb := c.callback.Load()
	if cb == nil || len(buf) == 0 {
		return len(buf), nil
	}
	if cap(c.scratch) < len(buf)*2 {
		c.scratch = make([]byte, len(buf)*2)
	}
	data := c.scratch[:len(buf)*2]
	for i, s := range buf {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	(*cb)(data, uint32(len(buf)/c.channels))
	return len(buf), nil
}

func (c *pulseCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return
	}
	c.stream.Stop()
	c.stream.Close()
	c.stream = nil
}

func (c *pulseCapture) Close() {
	c.Stop()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *pulseCapture) SetCallback(cb DataCallback) {
	c.callback.Store(&cb)
}

func (c *pulseCapture) ClearCallback() {
	c.callback.Store(nil)
}
