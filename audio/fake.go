package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-audio/wav"
)

const fakeChunkFrames = 1024

// FakeContext plays back fixed PCM as if it came from a microphone. After
// the PCM runs out it keeps delivering silence until stopped.
type FakeContext struct {
	pcm        []byte
	sampleRate int
	channels   int
	// speed scales playback; 1 is real time.
	speed float64

	// StartErr, when set, is returned by every capture's Start.
	StartErr error
}

// NewFakeContext loads a 16-bit PCM WAV file.
func NewFakeContext(wavPath string, speed float64) (*FakeContext, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid WAV file", wavPath)
	}
	if dec.BitDepth != 16 {
		return nil, fmt.Errorf("%s: %d-bit WAV, want 16-bit PCM", wavPath, dec.BitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", wavPath, err)
	}
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return NewFakeContextPCM(samples, int(dec.SampleRate), int(dec.NumChans), speed), nil
}

func NewFakeContextPCM(samples []int16, sampleRate, channels int, speed float64) *FakeContext {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	if speed <= 0 {
		speed = 1
	}
	return &FakeContext{pcm: pcm, sampleRate: sampleRate, channels: channels, speed: speed}
}

func (f *FakeContext) SampleRate() int { return f.sampleRate }
func (f *FakeContext) Channels() int   { return f.channels }

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "Fake Microphone"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	chunkBytes := fakeChunkFrames * f.channels * 2
	interval := time.Duration(float64(fakeChunkFrames) * float64(time.Second) / float64(f.sampleRate) / f.speed)
	return &FakeCapture{
		pcm:        f.pcm,
		chunkBytes: chunkBytes,
		interval:   interval,
		startErr:   f.StartErr,
		audioDone:  make(chan struct{}),
	}, nil
}

type FakeCapture struct {
	pcm        []byte
	chunkBytes int
	interval   time.Duration
	startErr   error
	audioDone  chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone is closed once the whole PCM has been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) deliver(chunk []byte) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(chunk, uint32(len(chunk)/2))
	}
}

func (f *FakeCapture) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	go func() {
		defer close(f.feedDone)
		ticker := time.NewTicker(max(f.interval, 50*time.Microsecond))
		defer ticker.Stop()

		silence := make([]byte, f.chunkBytes)
		pos := 0
		finished := false
		for {
			if pos < len(f.pcm) {
				end := min(pos+f.chunkBytes, len(f.pcm))
				chunk := make([]byte, end-pos)
				copy(chunk, f.pcm[pos:end])
				f.deliver(chunk)
				pos = end
			} else {
				if !finished {
					finished = true
					close(f.audioDone)
				}
				f.deliver(silence)
			}

			select {
			case <-f.stopCh:
				return
			case <-ticker.C:
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
}

func (f *FakeCapture) Close() {}
