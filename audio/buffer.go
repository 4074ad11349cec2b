package audio

import "time"

// Buffer is the concatenation of one session's frames. Ownership moves to
// the transcription pipeline on handoff.
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

func NewBuffer(sampleRate, channels int) *Buffer {
	return &Buffer{SampleRate: sampleRate, Channels: channels}
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

func (b *Buffer) Append(f Frame) {
	b.Samples = append(b.Samples, f.Samples...)
}
