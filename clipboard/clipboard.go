// Package clipboard inserts text into the focused application, either by
// pasting through the system clipboard or by typing it as keystrokes.
package clipboard

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	cb "github.com/atotto/clipboard"
)

var (
	ErrEmptyText = errors.New("refusing to insert empty text")
	// ErrUntypeable is returned by Keyboard.Type, before any key is sent,
	// when text holds a character the keyboard cannot produce.
	ErrUntypeable = errors.New("text cannot be typed")
)

type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

type Keyboard interface {
	// Paste sends the platform paste chord.
	Paste() error
	Type(text string) error
}

// System is the OS clipboard.
type System struct{}

func (System) Read() (string, error)   { return cb.ReadAll() }
func (System) Write(text string) error { return cb.WriteAll(text) }

type Method int

const (
	MethodClipboard Method = iota
	MethodKeyboard
	// MethodNone leaves the text on the clipboard without pasting.
	MethodNone
)

func ParseMethod(s string) (Method, error) {
	switch s {
	case "clipboard", "":
		return MethodClipboard, nil
	case "keyboard":
		return MethodKeyboard, nil
	case "none":
		return MethodNone, nil
	}
	return 0, fmt.Errorf("unknown insert method %q", s)
}

const DefaultSettle = 100 * time.Millisecond

type Inserter struct {
	Method    Method
	Clipboard Clipboard
	Keyboard  Keyboard
	// Restore puts the previous clipboard contents back after pasting.
	Restore bool
	// Settle is the pause around the paste chord that lets the target
	// application read the clipboard.
	Settle time.Duration

	mu sync.Mutex
}

func (in *Inserter) Insert(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	in.mu.Lock()
	defer in.mu.Unlock()

	switch in.Method {
	case MethodNone:
		return in.Clipboard.Write(text)
	case MethodKeyboard:
		if isASCII(text) {
			err := in.Keyboard.Type(text)
			if !errors.Is(err, ErrUntypeable) {
				return err
			}
		}
	}
	return in.paste(text)
}

func (in *Inserter) paste(text string) error {
	prev, readErr := in.Clipboard.Read()
	if err := in.Clipboard.Write(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	time.Sleep(in.Settle)
	if err := in.Keyboard.Paste(); err != nil {
		return fmt.Errorf("sending paste: %w", err)
	}
	if !in.Restore || readErr != nil {
		return nil
	}
	time.Sleep(in.Settle)
	if err := in.Clipboard.Write(prev); err != nil {
		return fmt.Errorf("restoring clipboard: %w", err)
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
