package hotkey

import (
	"fmt"
	"strings"
)

type Modifier int

const (
	ModCtrl Modifier = iota
	ModShift
	ModAlt
	ModSuper
)

func (m Modifier) String() string {
	switch m {
	case ModCtrl:
		return "Ctrl"
	case ModShift:
		return "Shift"
	case ModAlt:
		return "Alt"
	case ModSuper:
		return "Super"
	}
	return "?"
}

// Key is a parsed trigger key: either a single key (which may itself be a
// modifier such as ctrl_l) or a chord of modifiers plus one main key.
type Key struct {
	Name string
	Mods []Modifier
	Main string
	// Code is the Linux input event code of Main.
	Code uint16
}

// IsModifierOnly reports whether the trigger is a bare modifier key.
func (k Key) IsModifierOnly() bool {
	_, ok := modifierKeys[k.Main]
	return ok && len(k.Mods) == 0
}

func (k Key) String() string {
	var parts []string
	for _, m := range k.Mods {
		parts = append(parts, m.String())
	}
	return strings.Join(append(parts, displayName(k.Main)), "+")
}

func displayName(main string) string {
	switch main {
	case "ctrl_l":
		return "Left Ctrl"
	case "ctrl_r":
		return "Right Ctrl"
	case "shift_l":
		return "Left Shift"
	case "shift_r":
		return "Right Shift"
	case "alt_l":
		return "Left Alt"
	case "alt_r":
		return "Right Alt"
	case "super_l":
		return "Left Super"
	case "super_r":
		return "Right Super"
	}
	return strings.ToUpper(main[:1]) + main[1:]
}

// linux/input-event-codes.h
var modifierKeys = map[string]uint16{
	"ctrl_l":  29,
	"ctrl_r":  97,
	"shift_l": 42,
	"shift_r": 54,
	"alt_l":   56,
	"alt_r":   100,
	"super_l": 125,
	"super_r": 126,
}

var mainKeys = map[string]uint16{
	"space": 57, "tab": 15, "caps_lock": 58, "pause": 119, "scroll_lock": 70,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64,
	"f7": 65, "f8": 66, "f9": 67, "f10": 68, "f11": 87, "f12": 88,
	"a": 30, "b": 48, "c": 46, "d": 32, "e": 18, "f": 33, "g": 34,
	"h": 35, "i": 23, "j": 36, "k": 37, "l": 38, "m": 50, "n": 49,
	"o": 24, "p": 25, "q": 16, "r": 19, "s": 31, "t": 20, "u": 22,
	"v": 47, "w": 17, "x": 45, "y": 21, "z": 44,
}

var modifierNames = map[string]Modifier{
	"ctrl":  ModCtrl,
	"shift": ModShift,
	"alt":   ModAlt,
	"super": ModSuper,
	"cmd":   ModSuper,
}

// ParseKey parses names like "ctrl_l", "f9" or "ctrl+shift+space".
func ParseKey(s string) (Key, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return Key{}, fmt.Errorf("empty trigger key")
	}
	parts := strings.Split(name, "+")
	main := parts[len(parts)-1]

	k := Key{Name: name, Main: main}
	seen := map[Modifier]bool{}
	for _, p := range parts[:len(parts)-1] {
		m, ok := modifierNames[p]
		if !ok {
			return Key{}, fmt.Errorf("unknown modifier %q in trigger key %q", p, s)
		}
		if seen[m] {
			return Key{}, fmt.Errorf("duplicate modifier %q in trigger key %q", p, s)
		}
		seen[m] = true
		k.Mods = append(k.Mods, m)
	}

	if code, ok := modifierKeys[main]; ok {
		if len(k.Mods) > 0 {
			return Key{}, fmt.Errorf("trigger key %q: a modifier key cannot be combined with modifiers", s)
		}
		k.Code = code
		return k, nil
	}
	code, ok := mainKeys[main]
	if !ok {
		return Key{}, fmt.Errorf("unknown trigger key %q", main)
	}
	k.Code = code
	return k, nil
}
