package audio

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func TestFrameLevels(t *testing.T) {
	f := Frame{Samples: []int16{16384, -16384, 16384, -16384}, Channels: 1}
	if got := f.RMS(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("RMS = %v, want 0.5", got)
	}
	if got := f.Peak(); got != 0.5 {
		t.Errorf("Peak = %v, want 0.5", got)
	}
	if (Frame{}).RMS() != 0 {
		t.Error("empty frame RMS must be 0")
	}
	if got := (Frame{Samples: make([]int16, 6), Channels: 2}).Len(); got != 3 {
		t.Errorf("Len = %d, want 3", got)
	}
}

func TestBufferDuration(t *testing.T) {
	b := NewBuffer(8000, 2)
	b.Append(Frame{Samples: make([]int16, 16000), Channels: 2})
	if b.Frames() != 8000 {
		t.Errorf("frames = %d, want 8000", b.Frames())
	}
	if b.Duration() != time.Second {
		t.Fatalf("Duration = %v, want 1s", b.Duration())
	}
	var nilBuf *Buffer
	if nilBuf.Duration() != 0 || nilBuf.Frames() != 0 {
		t.Error("nil buffer must be empty")
	}
}

func TestWaveformRolls(t *testing.T) {
	w := NewWaveform(3)
	for _, v := range []int16{0, 8192, 16384, 32767} {
		w.Observe(Frame{Samples: []int16{v, -v}, Channels: 1})
	}
	snap := w.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d, want 3", len(snap))
	}
	if !(snap[0] < snap[1] && snap[1] < snap[2]) {
		t.Errorf("snapshot not oldest-first: %v", snap)
	}
	if w.Level() != snap[2] {
		t.Errorf("Level = %v, want newest %v", w.Level(), snap[2])
	}
	w.Reset()
	if len(w.Snapshot()) != 0 || w.Level() != 0 {
		t.Error("Reset must clear levels")
	}
}

func TestIsBluetooth(t *testing.T) {
	if !IsBluetooth("AirPods Pro") || IsBluetooth("Built-in Microphone") {
		t.Error("IsBluetooth misclassified")
	}
}

func TestFindDevice(t *testing.T) {
	ctx := NewFakeContextPCM(nil, 8000, 1, 1)
	d, err := FindDevice(ctx, "fake")
	if err != nil || d == nil || d.ID != "fake" {
		t.Fatalf("FindDevice = %v, %v", d, err)
	}
	if d, err := FindDevice(ctx, ""); d != nil || err != nil {
		t.Error("empty name must select the default device")
	}
	if _, err := FindDevice(ctx, "usb"); err == nil {
		t.Error("expected error for unknown device")
	}
}

func TestPickerKeys(t *testing.T) {
	tests := map[string]pickerKey{
		"\r":     keyEnter,
		"\x03":   keyCancel,
		"j":      keyDown,
		"k":      keyUp,
		"\x1b[A": keyUp,
		"\x1b[B": keyDown,
		"x":      keyNone,
	}
	for in, want := range tests {
		if got := decodePickerKey([]byte(in)); got != want {
			t.Errorf("decodePickerKey(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRenderDevicesMarksCursorAndBluetooth(t *testing.T) {
	var out bytes.Buffer
	renderDevices(&out, []DeviceInfo{{Name: "Built-in"}, {Name: "Jabra Evolve"}}, 1)
	s := out.String()
	if !strings.Contains(s, "▶ Jabra Evolve") {
		t.Errorf("cursor not on second device: %q", s)
	}
	if !strings.Contains(s, "bluetooth") {
		t.Errorf("bluetooth tag missing: %q", s)
	}
}
