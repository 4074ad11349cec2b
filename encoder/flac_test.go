package encoder

import (
	"testing"
)

func sine(n, channels int) []int16 {
	out := make([]int16, n*channels)
	for i := range out {
		out[i] = int16((i * 37) % 2000)
	}
	return out
}

func TestFlacEncoder(t *testing.T) {
	samples := sine(3*BlockSize+100, 1)

	enc, err := NewFlac(16000, 1)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	var totalFed uint64
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			t.Fatalf("EncodeBlock at offset %d: %v", i, err)
		}
		totalFed += uint64(end - i)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if enc.TotalFrames() != totalFed {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), totalFed)
	}
	data := enc.Bytes()
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestFlacEncoderStereo(t *testing.T) {
	enc, err := NewFlac(44100, 2)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.EncodeBlock(sine(500, 2)); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if enc.TotalFrames() != 500 {
		t.Errorf("TotalFrames = %d, want 500 frames per channel", enc.TotalFrames())
	}
}

func TestFlacEncoderRejectsSurround(t *testing.T) {
	if _, err := NewFlac(48000, 6); err == nil {
		t.Fatal("expected error for 6 channels")
	}
}

func TestFlacEncoderEmpty(t *testing.T) {
	enc, err := NewFlac(16000, 1)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close on empty encoder: %v", err)
	}
	if enc.TotalFrames() != 0 {
		t.Errorf("TotalFrames = %d, want 0", enc.TotalFrames())
	}
	if len(enc.Bytes()) == 0 {
		t.Error("expected non-empty FLAC output (at least header)")
	}
}
