package clipboard

import (
	"errors"
	"testing"
)

type memClipboard struct {
	content  string
	readErr  error
	writes   []string
	writeErr error
}

func (m *memClipboard) Read() (string, error) { return m.content, m.readErr }

func (m *memClipboard) Write(text string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes = append(m.writes, text)
	m.content = text
	return nil
}

type recordingKeyboard struct {
	clip    *memClipboard
	pasted  []string
	typed   []string
	typeErr error
}

func (k *recordingKeyboard) Paste() error {
	k.pasted = append(k.pasted, k.clip.content)
	return nil
}

func (k *recordingKeyboard) Type(text string) error {
	if k.typeErr != nil {
		return k.typeErr
	}
	k.typed = append(k.typed, text)
	return nil
}

func newInserter(m Method) (*Inserter, *memClipboard, *recordingKeyboard) {
	clip := &memClipboard{content: "previous"}
	kb := &recordingKeyboard{clip: clip}
	return &Inserter{Method: m, Clipboard: clip, Keyboard: kb, Restore: true}, clip, kb
}

func TestClipboardInsertRestores(t *testing.T) {
	in, clip, kb := newInserter(MethodClipboard)

	if err := in.Insert("你好世界"); err != nil {
		t.Fatal(err)
	}
	if len(kb.pasted) != 1 || kb.pasted[0] != "你好世界" {
		t.Errorf("pasted = %q", kb.pasted)
	}
	if clip.content != "previous" {
		t.Errorf("clipboard = %q, want restored %q", clip.content, "previous")
	}
}

func TestClipboardInsertNoRestore(t *testing.T) {
	in, clip, _ := newInserter(MethodClipboard)
	in.Restore = false

	if err := in.Insert("keep me"); err != nil {
		t.Fatal(err)
	}
	if clip.content != "keep me" {
		t.Errorf("clipboard = %q", clip.content)
	}
}

func TestUnreadableClipboardIsNotRestored(t *testing.T) {
	in, clip, _ := newInserter(MethodClipboard)
	clip.readErr = errors.New("no clipboard owner")

	if err := in.Insert("text"); err != nil {
		t.Fatal(err)
	}
	if len(clip.writes) != 1 {
		t.Errorf("writes = %q, want only the inserted text", clip.writes)
	}
}

func TestKeyboardTypesASCII(t *testing.T) {
	in, _, kb := newInserter(MethodKeyboard)

	if err := in.Insert("hello world"); err != nil {
		t.Fatal(err)
	}
	if len(kb.typed) != 1 || len(kb.pasted) != 0 {
		t.Errorf("typed = %q, pasted = %q", kb.typed, kb.pasted)
	}
}

func TestKeyboardFallsBackForNonASCII(t *testing.T) {
	in, _, kb := newInserter(MethodKeyboard)

	if err := in.Insert("中文"); err != nil {
		t.Fatal(err)
	}
	if len(kb.typed) != 0 || len(kb.pasted) != 1 {
		t.Errorf("typed = %q, pasted = %q", kb.typed, kb.pasted)
	}
}

func TestKeyboardFallsBackWhenUntypeable(t *testing.T) {
	in, _, kb := newInserter(MethodKeyboard)
	kb.typeErr = ErrUntypeable

	if err := in.Insert("a~b"); err != nil {
		t.Fatal(err)
	}
	if len(kb.pasted) != 1 {
		t.Errorf("pasted = %q", kb.pasted)
	}
}

func TestKeyboardErrorSurfaces(t *testing.T) {
	in, _, kb := newInserter(MethodKeyboard)
	kb.typeErr = errors.New("permission denied")

	if err := in.Insert("abc"); err == nil || errors.Is(err, ErrUntypeable) {
		t.Errorf("err = %v", err)
	}
}

func TestMethodNoneOnlyCopies(t *testing.T) {
	in, clip, kb := newInserter(MethodNone)

	if err := in.Insert("copied"); err != nil {
		t.Fatal(err)
	}
	if clip.content != "copied" || len(kb.pasted) != 0 {
		t.Errorf("clipboard = %q, pasted = %q", clip.content, kb.pasted)
	}
}

func TestRejectsBlankText(t *testing.T) {
	in, clip, kb := newInserter(MethodClipboard)
	for _, text := range []string{"", "  ", "\n\t"} {
		if err := in.Insert(text); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Insert(%q) = %v, want ErrEmptyText", text, err)
		}
	}
	if len(clip.writes) != 0 || len(kb.pasted) != 0 {
		t.Error("blank text reached the clipboard")
	}
}

func TestWriteFailure(t *testing.T) {
	in, clip, kb := newInserter(MethodClipboard)
	clip.writeErr = errors.New("locked")

	if err := in.Insert("x"); err == nil {
		t.Fatal("expected error")
	}
	if len(kb.pasted) != 0 {
		t.Error("pasted after failed write")
	}
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{"": MethodClipboard, "clipboard": MethodClipboard, "keyboard": MethodKeyboard, "none": MethodNone} {
		got, err := ParseMethod(in)
		if err != nil || got != want {
			t.Errorf("ParseMethod(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMethod("xdotool"); err == nil {
		t.Error("expected error")
	}
}
