package encoder

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-audio/wav"
)

func TestWAVEncoderHeaderAndSamples(t *testing.T) {
	samples := sine(5000, 1)
	data, err := Encode(WAV, samples, 44100, 1)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("bad RIFF header: %q", data[:12])
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); int(got) != len(data)-8 {
		t.Errorf("RIFF size = %d, want %d (Close must patch sizes)", got, len(data)-8)
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if dec.SampleRate != 44100 || dec.BitDepth != 16 || dec.NumChans != 1 {
		t.Errorf("format = %d Hz / %d bit / %d ch", dec.SampleRate, dec.BitDepth, dec.NumChans)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(samples))
	}
	for i := range samples {
		if buf.Data[i] != int(samples[i]) {
			t.Fatalf("sample %d = %d, want %d", i, buf.Data[i], samples[i])
		}
	}
}

func TestWAVEncoderStereoFrames(t *testing.T) {
	enc := NewWAV(16000, 2)
	if err := enc.EncodeBlock(sine(100, 2)); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if enc.TotalFrames() != 100 {
		t.Errorf("TotalFrames = %d, want 100", enc.TotalFrames())
	}
	// 44-byte canonical header + 200 samples * 2 bytes
	if got := len(enc.Bytes()); got != 44+400 {
		t.Errorf("size = %d, want %d", got, 44+400)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": WAV, "wav": WAV, "flac": FLAC} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("mp3"); err == nil {
		t.Error("expected error for mp3")
	}
	if FLAC.MIME() != "audio/flac" || WAV.Filename() != "audio.wav" {
		t.Error("unexpected MIME/filename")
	}
}
