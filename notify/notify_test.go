package notify

import (
	"errors"
	"testing"
)

func TestDesktopNotify(t *testing.T) {
	var got []string
	d := NewDesktop(true)
	d.send = func(title, message string) error {
		got = append(got, title+": "+message)
		return nil
	}

	if err := d.Notify("录音时间太短(小于0.3秒)，已取消"); err != nil {
		t.Fatal(err)
	}
	if err := d.Notify(""); err != nil {
		t.Fatal(err)
	}
	d.SetEnabled(false)
	if err := d.Notify("dropped"); err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 || got[0] != "VoiceInk: 录音时间太短(小于0.3秒)，已取消" {
		t.Errorf("got %q", got)
	}
}

func TestDesktopNotifyError(t *testing.T) {
	d := NewDesktop(true)
	d.send = func(string, string) error { return errors.New("no dbus") }
	if err := d.Notify("x"); err == nil {
		t.Error("expected error")
	}
}
