package hotkey

import (
	"sync/atomic"
	"time"
)

// FakeHotkey is driven programmatically by tests and the stdin test mode.
type FakeHotkey struct {
	keydown    chan struct{}
	keyup      chan struct{}
	registered atomic.Bool
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{
		keydown: make(chan struct{}, 16),
		keyup:   make(chan struct{}, 16),
	}
}

func (f *FakeHotkey) Register() error          { f.registered.Store(true); return nil }
func (f *FakeHotkey) Unregister()              { f.registered.Store(false) }
func (f *FakeHotkey) Registered() bool         { return f.registered.Load() }
func (f *FakeHotkey) Keydown() <-chan struct{} { return f.keydown }
func (f *FakeHotkey) Keyup() <-chan struct{}   { return f.keyup }

func (f *FakeHotkey) SimKeydown() { f.keydown <- struct{}{} }
func (f *FakeHotkey) SimKeyup()   { f.keyup <- struct{}{} }

// Hold presses the key for d and releases it.
func (f *FakeHotkey) Hold(d time.Duration) {
	f.SimKeydown()
	time.Sleep(d)
	f.SimKeyup()
}
