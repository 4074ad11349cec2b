package audio

import (
	"encoding/binary"
	"math"
)

// Frame is a fixed-length block of interleaved 16-bit samples. Only the
// last frame of a stream may be shorter. Frames are never mutated after
// they are emitted.
type Frame struct {
	Samples  []int16
	Channels int
}

// Len returns the number of sample frames (samples per channel).
func (f Frame) Len() int {
	if f.Channels <= 0 {
		return 0
	}
	return len(f.Samples) / f.Channels
}

// RMS returns the root-mean-square amplitude normalized to [0, 1].
func (f Frame) RMS() float64 {
	if len(f.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range f.Samples {
		v := float64(s) / 32768
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(f.Samples)))
}

// Peak returns the absolute peak amplitude normalized to [0, 1].
func (f Frame) Peak() float64 {
	var peak int32
	for _, s := range f.Samples {
		v := int32(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return float64(peak) / 32768
}

func decodePCM16(dst []int16, data []byte) []int16 {
	for i := 0; i+1 < len(data); i += 2 {
		dst = append(dst, int16(binary.LittleEndian.Uint16(data[i:])))
	}
	return dst
}
