//go:build !linux

package beep

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// malgoOutput keeps one playback device open and swaps in the cue to play.
type malgoOutput struct {
	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	// accessed from the device callback
	current atomic.Pointer[[]byte]
	pos     atomic.Uint32
}

func newOutput() output {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil
	}
	o := &malgoOutput{ctx: ctx}
	if err := o.initDevice(); err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil
	}
	return o
}

func (o *malgoOutput) initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	device, err := malgo.InitDevice(o.ctx.Context, config, malgo.DeviceCallbacks{Data: o.onData})
	if err != nil {
		return err
	}
	o.device = device
	return nil
}

func (o *malgoOutput) onData(out, _ []byte, frameCount uint32) {
	want := frameCount * 2
	clear(out[:want])
	samples := o.current.Load()
	if samples == nil {
		return
	}
	pos := o.pos.Load()
	remaining := uint32(len(*samples)) - pos
	if remaining == 0 {
		o.current.Store(nil)
		return
	}
	n := min(want, remaining)
	copy(out[:n], (*samples)[pos:pos+n])
	o.pos.Store(pos + n)
}

func (o *malgoOutput) play(samples []int16) {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	// Stop first to ensure clean state (no-op if not running)
	o.device.Stop()
	o.pos.Store(0)
	o.current.Store(&pcm)

	if err := o.device.Start(); err != nil {
		// Recreate the device, which handles sleep/wake on macOS
		o.device.Uninit()
		if err := o.initDevice(); err != nil {
			o.current.Store(nil)
			return
		}
		if err := o.device.Start(); err != nil {
			o.current.Store(nil)
		}
	}
}
