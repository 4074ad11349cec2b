package clipboard

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

// ioctl constants from linux/uinput.h
const (
	uiSetEvbit  = 0x40045564 // UI_SET_EVBIT
	uiSetKeybit = 0x40045565 // UI_SET_KEYBIT
	uiDevCreate = 0x5501     // UI_DEV_CREATE
)

// input event types from linux/input-event-codes.h
const (
	evSyn = 0x00
	evKey = 0x01
)

const (
	busUSB     = 0x03
	deviceName = "voiceink-input"
	keyDelay   = 5 * time.Millisecond
)

type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputUserDev struct {
	Name         [80]byte
	ID           inputID
	FfEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

// UInput is a virtual keyboard created through /dev/uinput. It works under
// X11 and Wayland alike, but needs write access to the uinput device.
type UInput struct {
	once sync.Once
	mu   sync.Mutex
	fd   *os.File
	err  error
}

func NewKeyboard() Keyboard {
	return &UInput{}
}

func (u *UInput) init() error {
	u.once.Do(func() {
		path := "/dev/uinput"
		if _, err := os.Stat(path); err != nil {
			path = "/dev/input/uinput"
			if _, err := os.Stat(path); err != nil {
				u.err = errors.New("uinput device not found, try: sudo modprobe uinput")
				return
			}
		}
		f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, os.ModeDevice)
		if err != nil {
			u.err = err
			return
		}
		if err := createDevice(f); err != nil {
			u.err = err
			f.Close()
			return
		}
		u.fd = f
		// Give compositor time to recognize the new input device
		time.Sleep(200 * time.Millisecond)
	})
	return u.err
}

func ioctl(f *os.File, req, arg uintptr) error {
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), req, arg); errno != 0 {
		return errno
	}
	return nil
}

func createDevice(f *os.File) error {
	if err := ioctl(f, uiSetEvbit, evKey); err != nil {
		return err
	}
	if err := ioctl(f, uiSetEvbit, evSyn); err != nil {
		return err
	}
	// Register all standard keys so udev classifies this as a keyboard
	for i := uintptr(0); i < 256; i++ {
		if err := ioctl(f, uiSetKeybit, i); err != nil {
			return err
		}
	}
	dev := uinputUserDev{}
	copy(dev.Name[:], deviceName)
	dev.ID.Bustype = busUSB
	dev.ID.Vendor = 0x1234
	dev.ID.Product = 0x5679
	dev.ID.Version = 1
	if err := binary.Write(f, binary.LittleEndian, &dev); err != nil {
		return err
	}
	return ioctl(f, uiDevCreate, 0)
}

// emit writes one key event followed by a sync report.
func (u *UInput) emit(code uint16, value int32) error {
	if err := binary.Write(u.fd, binary.LittleEndian, &inputEvent{Type: evKey, Code: code, Value: value}); err != nil {
		return err
	}
	return binary.Write(u.fd, binary.LittleEndian, &inputEvent{Type: evSyn})
}

func (u *UInput) chord(mod uint16, k keyCode) error {
	if k.shift {
		mod = keyLeftShift
	}
	if mod != 0 {
		if err := u.emit(mod, 1); err != nil {
			return err
		}
		// Let compositor register modifier state
		time.Sleep(keyDelay)
	}
	if err := u.emit(k.code, 1); err != nil {
		return err
	}
	if err := u.emit(k.code, 0); err != nil {
		return err
	}
	if mod != 0 {
		time.Sleep(keyDelay)
		return u.emit(mod, 0)
	}
	return nil
}

func (u *UInput) Paste() error {
	if err := u.init(); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.chord(keyLeftCtrl, keyCode{code: keyV})
}

// Type sends each byte of text as a keystroke on a US layout.
func (u *UInput) Type(text string) error {
	seq, err := keySequence(text)
	if err != nil {
		return err
	}
	if err := u.init(); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, k := range seq {
		if err := u.chord(0, k); err != nil {
			return err
		}
		time.Sleep(keyDelay)
	}
	return nil
}

// Verify sends a Ctrl+V keystroke and reads it back from the kernel input
// layer to confirm delivery.
func (u *UInput) Verify() (string, error) {
	if err := u.init(); err != nil {
		return "", fmt.Errorf("uinput init: %w", err)
	}

	evdevPath, err := findDevice(deviceName)
	if err != nil {
		return "", err
	}
	evdev, err := os.Open(evdevPath)
	if err != nil {
		return "", fmt.Errorf("cannot open %s: %w", evdevPath, err)
	}
	defer evdev.Close()

	if err := u.Paste(); err != nil {
		return "", fmt.Errorf("paste send: %w", err)
	}

	type result struct {
		ctrl, v bool
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, 24*32)
		var r result
		n, err := evdev.Read(buf)
		if err != nil {
			r.err = err
			ch <- r
			return
		}
		for i := 0; i+24 <= n; i += 24 {
			if binary.LittleEndian.Uint16(buf[i+16:]) != evKey {
				continue
			}
			switch binary.LittleEndian.Uint16(buf[i+18:]) {
			case keyLeftCtrl:
				r.ctrl = true
			case keyV:
				r.v = true
			}
		}
		ch <- r
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("reading events: %w", r.err)
		}
		if !r.ctrl || !r.v {
			return "", fmt.Errorf("missing events (ctrl=%v, v=%v)", r.ctrl, r.v)
		}
		return fmt.Sprintf("Ctrl+V keystroke verified via %s", evdevPath), nil
	case <-time.After(500 * time.Millisecond):
		return "", errors.New("timed out waiting for keystroke events")
	}
}

func findDevice(name string) (string, error) {
	entries, err := os.ReadDir("/sys/class/input")
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		data, err := os.ReadFile(filepath.Join("/sys/class/input", e.Name(), "device", "name"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(data)) == name {
			return filepath.Join("/dev/input", e.Name()), nil
		}
	}
	return "", fmt.Errorf("%s evdev device not found", name)
}
