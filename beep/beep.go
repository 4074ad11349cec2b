// Package beep plays short synthesized cues when recording starts, ends or
// fails.
package beep

import (
	"math"
	"sync"
	"sync/atomic"
)

type Cue int

const (
	Start Cue = iota
	End
	Error
)

const sampleRate = 44100

type tone struct {
	freq     float64
	duration float64 // seconds
	volume   float64
	decay    float64
	// gap > 0 repeats the tone after that many seconds of silence.
	gap float64
}

var tones = map[Cue]tone{
	// high pitch, short
	Start: {freq: 1200, duration: 0.2, volume: 0.5, decay: 60},
	// medium pitch, slightly longer ring
	End: {freq: 900, duration: 0.2, volume: 0.5, decay: 40},
	// low pitch double-beep
	Error: {freq: 350, duration: 0.08, volume: 0.6, decay: 30, gap: 0.05},
}

// Player plays cues asynchronously. A disabled Player is silent.
type Player struct {
	enabled atomic.Bool
	once    sync.Once
	samples map[Cue][]int16
	out     output
}

func New(enabled bool) *Player {
	p := &Player{}
	p.enabled.Store(enabled)
	return p
}

func (p *Player) SetEnabled(v bool) { p.enabled.Store(v) }

func (p *Player) init() {
	p.once.Do(func() {
		p.samples = make(map[Cue][]int16, len(tones))
		for c, t := range tones {
			p.samples[c] = synth(t)
		}
		p.out = newOutput()
	})
}

// Play never blocks on audio output.
func (p *Player) Play(c Cue) {
	if p == nil || !p.enabled.Load() {
		return
	}
	p.init()
	if s := p.samples[c]; len(s) > 0 && p.out != nil {
		go p.out.play(s)
	}
}

type output interface {
	play(samples []int16)
}

// synth renders a mono decaying sine.
func synth(t tone) []int16 {
	n := int(sampleRate * t.duration)
	out := make([]int16, n)
	for i := range out {
		ts := float64(i) / sampleRate
		envelope := math.Exp(-ts * t.decay)
		out[i] = int16(math.Sin(2*math.Pi*t.freq*ts) * 32767 * t.volume * envelope)
	}
	if t.gap <= 0 {
		return out
	}
	gap := make([]int16, int(sampleRate*t.gap))
	result := make([]int16, 0, 2*n+len(gap))
	result = append(result, out...)
	result = append(result, gap...)
	return append(result, out...)
}
