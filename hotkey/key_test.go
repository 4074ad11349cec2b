package hotkey

import "testing"

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		code    uint16
		mods    int
		modOnly bool
		display string
	}{
		{"ctrl_l", 29, 0, true, "Left Ctrl"},
		{"CTRL_R", 97, 0, true, "Right Ctrl"},
		{"f9", 67, 0, false, "F9"},
		{"ctrl+shift+space", 57, 2, false, "Ctrl+Shift+Space"},
		{" alt+z ", 44, 1, false, "Alt+Z"},
	}
	for _, tt := range tests {
		k, err := ParseKey(tt.in)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", tt.in, err)
		}
		if k.Code != tt.code {
			t.Errorf("ParseKey(%q).Code = %d, want %d", tt.in, k.Code, tt.code)
		}
		if len(k.Mods) != tt.mods {
			t.Errorf("ParseKey(%q) mods = %v, want %d", tt.in, k.Mods, tt.mods)
		}
		if k.IsModifierOnly() != tt.modOnly {
			t.Errorf("ParseKey(%q).IsModifierOnly() = %v", tt.in, k.IsModifierOnly())
		}
		if got := k.String(); got != tt.display {
			t.Errorf("ParseKey(%q).String() = %q, want %q", tt.in, got, tt.display)
		}
	}
}

func TestParseKeyErrors(t *testing.T) {
	for _, in := range []string{"", "hyper+a", "ctrl+ctrl+a", "ctrl+shift_l", "enterprise"} {
		if _, err := ParseKey(in); err == nil {
			t.Errorf("ParseKey(%q): expected error", in)
		}
	}
}
