//go:build linux

package hotkey

import "testing"

func newTestEvdev(t *testing.T, name string) (*evdevHotkey, *chordState) {
	t.Helper()
	k, err := ParseKey(name)
	if err != nil {
		t.Fatal(err)
	}
	hk, _ := New(k)
	return hk.(*evdevHotkey), &chordState{held: map[uint16]bool{}}
}

func pending(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestEvdevSingleModifierKey(t *testing.T) {
	h, st := newTestEvdev(t, "ctrl_l")

	h.handle(st, 29, keyPress)
	if !pending(h.keydown) {
		t.Fatal("expected keydown for left ctrl")
	}
	h.handle(st, 29, keyRepeat)
	h.handle(st, 29, keyPress)
	if pending(h.keydown) {
		t.Error("repeat must not emit a second keydown")
	}
	h.handle(st, 97, keyPress)
	if pending(h.keydown) {
		t.Error("right ctrl must not trigger left ctrl")
	}
	h.handle(st, 29, keyRelease)
	if !pending(h.keyup) {
		t.Error("expected keyup")
	}
}

func TestEvdevChordRequiresModifiers(t *testing.T) {
	h, st := newTestEvdev(t, "ctrl+shift+space")

	h.handle(st, 57, keyPress)
	if pending(h.keydown) {
		t.Fatal("space alone must not trigger")
	}
	h.handle(st, 57, keyRelease)
	if pending(h.keyup) {
		t.Fatal("release without press must not emit keyup")
	}

	h.handle(st, 97, keyPress) // right ctrl
	h.handle(st, 42, keyPress) // left shift
	h.handle(st, 57, keyPress)
	if !pending(h.keydown) {
		t.Fatal("expected keydown with ctrl+shift held")
	}
	// releasing a modifier first still ends on the space release
	h.handle(st, 42, keyRelease)
	h.handle(st, 57, keyRelease)
	if !pending(h.keyup) {
		t.Error("expected keyup")
	}
}

func TestBitmapHas(t *testing.T) {
	// A typical keyboard bitmap ends with a word where KEY_ESC..KEY_D are
	// set; a power button only reports KEY_POWER (116).
	keyboard := []string{"120013", "803078f800d001", "feffffdfffefffff", "fffffffffffffffe"}
	power := []string{"10000000000000", "0"}

	if !bitmapHas(keyboard, keyA) || !bitmapHas(keyboard, keyZ) {
		t.Error("keyboard bitmap should report letter keys")
	}
	if bitmapHas(power, keyA) {
		t.Error("power button should not report KEY_A")
	}
	if !bitmapHas(power, 116) {
		t.Error("power button should report KEY_POWER")
	}
	if bitmapHas(nil, keyA) || bitmapHas([]string{"zz"}, 1) {
		t.Error("malformed bitmap should report nothing")
	}
}

func TestDecodeEvent(t *testing.T) {
	b := make([]byte, inputEventSize)
	b[16] = evKey
	b[18] = 29
	b[20] = keyPress
	ev := decodeEvent(b)
	if ev.typ != evKey || ev.code != 29 || ev.value != keyPress {
		t.Errorf("decoded %+v", ev)
	}
}
