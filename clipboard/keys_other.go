//go:build !linux

package clipboard

import (
	"runtime"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

// Synth sends key events through the OS input APIs.
type Synth struct {
	once sync.Once
	mu   sync.Mutex
	kb   keybd_event.KeyBonding
	err  error
}

func NewKeyboard() Keyboard {
	return &Synth{}
}

func (s *Synth) init() error {
	s.once.Do(func() {
		s.kb, s.err = keybd_event.NewKeyBonding()
	})
	return s.err
}

func (s *Synth) press(vk int, shift, ctrl, super bool) error {
	s.kb.SetKeys(vk)
	s.kb.HasSHIFT(shift)
	s.kb.HasCTRL(ctrl)
	s.kb.HasSuper(super)
	return s.kb.Launching()
}

// Paste sends Cmd+V on macOS and Ctrl+V elsewhere.
func (s *Synth) Paste() error {
	if err := s.init(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	darwin := runtime.GOOS == "darwin"
	return s.press(keybd_event.VK_V, false, !darwin, darwin)
}

var letterKeys = [26]int{
	keybd_event.VK_A, keybd_event.VK_B, keybd_event.VK_C, keybd_event.VK_D,
	keybd_event.VK_E, keybd_event.VK_F, keybd_event.VK_G, keybd_event.VK_H,
	keybd_event.VK_I, keybd_event.VK_J, keybd_event.VK_K, keybd_event.VK_L,
	keybd_event.VK_M, keybd_event.VK_N, keybd_event.VK_O, keybd_event.VK_P,
	keybd_event.VK_Q, keybd_event.VK_R, keybd_event.VK_S, keybd_event.VK_T,
	keybd_event.VK_U, keybd_event.VK_V, keybd_event.VK_W, keybd_event.VK_X,
	keybd_event.VK_Y, keybd_event.VK_Z,
}

var digitKeys = [10]int{
	keybd_event.VK_0, keybd_event.VK_1, keybd_event.VK_2, keybd_event.VK_3,
	keybd_event.VK_4, keybd_event.VK_5, keybd_event.VK_6, keybd_event.VK_7,
	keybd_event.VK_8, keybd_event.VK_9,
}

type synthKey struct {
	vk    int
	shift bool
}

func synthSequence(text string) ([]synthKey, error) {
	seq := make([]synthKey, 0, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'a' && c <= 'z':
			seq = append(seq, synthKey{letterKeys[c-'a'], false})
		case c >= 'A' && c <= 'Z':
			seq = append(seq, synthKey{letterKeys[c-'A'], true})
		case c >= '0' && c <= '9':
			seq = append(seq, synthKey{digitKeys[c-'0'], false})
		case c == ' ':
			seq = append(seq, synthKey{keybd_event.VK_SPACE, false})
		default:
			return nil, ErrUntypeable
		}
	}
	return seq, nil
}

// Type covers letters, digits and spaces; anything else is ErrUntypeable
// so the caller can paste instead.
func (s *Synth) Type(text string) error {
	seq, err := synthSequence(text)
	if err != nil {
		return err
	}
	if err := s.init(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range seq {
		if err := s.press(k.vk, k.shift, false, false); err != nil {
			return err
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func (s *Synth) Verify() (string, error) {
	if err := s.init(); err != nil {
		return "", err
	}
	if runtime.GOOS == "darwin" {
		return "keyboard event binding OK (Cmd+V)", nil
	}
	return "keyboard event binding OK (Ctrl+V)", nil
}
