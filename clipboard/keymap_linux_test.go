package clipboard

import (
	"errors"
	"testing"
)

func TestCharToKey(t *testing.T) {
	for _, tt := range []struct {
		c     byte
		code  uint16
		shift bool
	}{
		{'a', 30, false},
		{'Z', 44, true},
		{'0', 11, false},
		{'9', 10, false},
		{' ', 57, false},
		{'?', 53, true},
		{'.', 52, false},
	} {
		k, ok := charToKey(tt.c)
		if !ok || k.code != tt.code || k.shift != tt.shift {
			t.Errorf("charToKey(%q) = %+v, %v; want {%d %v}", tt.c, k, ok, tt.code, tt.shift)
		}
	}
}

func TestKeySequenceRejectsUnmapped(t *testing.T) {
	if _, err := keySequence("ok\x01"); !errors.Is(err, ErrUntypeable) {
		t.Errorf("err = %v, want ErrUntypeable", err)
	}
	seq, err := keySequence("Hi!")
	if err != nil {
		t.Fatal(err)
	}
	if len(seq) != 3 || !seq[0].shift || seq[1].shift || !seq[2].shift {
		t.Errorf("seq = %+v", seq)
	}
}
