package beep

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// pulseOutput shares one client across cues. Cues are serialized; a cue
// requested while another plays waits for it to drain.
type pulseOutput struct {
	mu     sync.Mutex
	client *pulse.Client
}

func newOutput() output {
	return &pulseOutput{}
}

func (o *pulseOutput) play(samples []int16) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.client == nil {
		c, err := pulse.NewClient()
		if err != nil {
			return
		}
		o.client = c
	}

	stream, err := o.client.NewPlayback(pulse.Int16Reader(cueReader(samples)),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		// The server may have restarted; reconnect on the next cue.
		o.client.Close()
		o.client = nil
		return
	}
	defer stream.Close()
	stream.Start()
	stream.Drain()
}

func cueReader(samples []int16) func([]int16) (int, error) {
	pos := 0
	return func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	}
}
