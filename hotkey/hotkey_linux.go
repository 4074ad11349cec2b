//go:build linux

package hotkey

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const (
	evKey      = 1
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2

	// struct input_event on 64-bit: timeval(16) type(2) code(2) value(4)
	inputEventSize = 24

	// KEY_A and KEY_Z bound the letter block every real keyboard reports.
	keyA = 30
	keyZ = 44
)

var errNoKeyboardAccess = errors.New("no readable keyboard under /dev/input (run: sudo usermod -aG input $USER, then log in again)")

var modifierCodes = map[Modifier][2]uint16{
	ModCtrl:  {29, 97},
	ModShift: {42, 54},
	ModAlt:   {56, 100},
	ModSuper: {125, 126},
}

type inputEvent struct {
	typ   uint16
	code  uint16
	value int32
}

func decodeEvent(b []byte) inputEvent {
	return inputEvent{
		typ:   binary.LittleEndian.Uint16(b[16:]),
		code:  binary.LittleEndian.Uint16(b[18:]),
		value: int32(binary.LittleEndian.Uint32(b[20:])),
	}
}

// evdevHotkey listens on every keyboard's event node, so a bare modifier
// such as Left Ctrl works as a trigger on X11 and Wayland alike.
type evdevHotkey struct {
	key     Key
	keydown chan struct{}
	keyup   chan struct{}

	files []*os.File
	once  sync.Once
}

func New(key Key) (Hotkey, error) {
	return &evdevHotkey{
		key:     key,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}, nil
}

func (h *evdevHotkey) Register() error {
	files, err := openKeyboards()
	if err != nil {
		return err
	}
	h.files = files
	for _, f := range files {
		go h.read(f)
	}
	return nil
}

// chordState is per device: modifiers held on one keyboard do not combine
// with a trigger pressed on another.
type chordState struct {
	held map[uint16]bool
	down bool
}

func (h *evdevHotkey) modsHeld(st *chordState) bool {
	for _, m := range h.key.Mods {
		codes := modifierCodes[m]
		if !st.held[codes[0]] && !st.held[codes[1]] {
			return false
		}
	}
	return true
}

func (h *evdevHotkey) handle(st *chordState, code uint16, value int32) {
	if value == keyRepeat {
		return
	}
	pressed := value == keyPress
	if code != h.key.Code {
		st.held[code] = pressed
		return
	}
	if pressed && !st.down && h.modsHeld(st) {
		st.down = true
		send(h.keydown)
	} else if !pressed && st.down {
		st.down = false
		send(h.keyup)
	}
}

// read exits when the file is closed by Unregister or the device goes away.
func (h *evdevHotkey) read(f *os.File) {
	st := &chordState{held: map[uint16]bool{}}
	buf := make([]byte, inputEventSize*32)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			if ev := decodeEvent(buf[off:]); ev.typ == evKey {
				h.handle(st, ev.code, ev.value)
			}
		}
	}
}

func (h *evdevHotkey) Unregister() {
	h.once.Do(func() {
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *evdevHotkey) Keydown() <-chan struct{} { return h.keydown }

func (h *evdevHotkey) Keyup() <-chan struct{} { return h.keyup }

func keyboardNodes() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, fmt.Errorf("scan input devices: %w", err)
	}
	var nodes []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "event") && hasLetterKeys(e.Name()) {
			nodes = append(nodes, filepath.Join("/dev/input", e.Name()))
		}
	}
	return nodes, nil
}

// openKeyboards opens every keyboard node that is readable. Nodes that
// cannot be opened are skipped.
func openKeyboards() ([]*os.File, error) {
	nodes, err := keyboardNodes()
	if err != nil {
		return nil, err
	}
	var files []*os.File
	for _, p := range nodes {
		if f, err := os.Open(p); err == nil {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil, errNoKeyboardAccess
	}
	return files, nil
}

// hasLetterKeys reads the key capability bitmap from sysfs. The bitmap is
// printed as space-separated hex words, most significant first.
func hasLetterKeys(node string) bool {
	data, err := os.ReadFile(filepath.Join("/sys/class/input", node, "device", "capabilities", "key"))
	if err != nil {
		return false
	}
	words := strings.Fields(string(data))
	return bitmapHas(words, keyA) && bitmapHas(words, keyZ)
}

func bitmapHas(words []string, bit int) bool {
	const wordBits = strconv.IntSize
	idx := len(words) - 1 - bit/wordBits
	if idx < 0 || idx >= len(words) {
		return false
	}
	w, err := strconv.ParseUint(words[idx], 16, wordBits)
	if err != nil {
		return false
	}
	return w&(1<<(bit%wordBits)) != 0
}

// Diagnose reports whether the trigger can be observed.
func Diagnose(key Key) (string, error) {
	nodes, err := keyboardNodes()
	if err != nil {
		return "", err
	}
	files, err := openKeyboards()
	if err != nil {
		return "", fmt.Errorf("found %d keyboard(s): %w", len(nodes), err)
	}
	for _, f := range files {
		f.Close()
	}
	return fmt.Sprintf("trigger %s, %d keyboard(s) readable of %d found", key, len(files), len(nodes)), nil
}
