package beep

import (
	"math"
	"testing"
)

func TestSynthLength(t *testing.T) {
	s := synth(tones[Start])
	if want := int(sampleRate * 0.2); len(s) != want {
		t.Errorf("len = %d, want %d", len(s), want)
	}
}

func TestSynthDecays(t *testing.T) {
	s := synth(tones[End])
	peak := func(from, to int) float64 {
		var m float64
		for _, v := range s[from:to] {
			m = math.Max(m, math.Abs(float64(v)))
		}
		return m
	}
	head := peak(0, 1000)
	tail := peak(len(s)-1000, len(s))
	if head <= tail*10 {
		t.Errorf("no decay: head peak %v, tail peak %v", head, tail)
	}
	if head > 32767*0.5 {
		t.Errorf("peak %v exceeds volume", head)
	}
}

func TestErrorCueHasSilentGap(t *testing.T) {
	tn := tones[Error]
	s := synth(tn)
	n := int(sampleRate * tn.duration)
	gap := int(sampleRate * tn.gap)
	if len(s) != 2*n+gap {
		t.Fatalf("len = %d, want %d", len(s), 2*n+gap)
	}
	for i := n; i < n+gap; i++ {
		if s[i] != 0 {
			t.Fatalf("sample %d in gap = %d", i, s[i])
		}
	}
}

func TestDisabledPlayerIsSilent(t *testing.T) {
	p := New(false)
	p.Play(Start)
	if p.samples != nil {
		t.Error("disabled player initialized audio output")
	}
	var nilPlayer *Player
	nilPlayer.Play(End)
}
