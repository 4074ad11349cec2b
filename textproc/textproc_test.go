package textproc

import "testing"

const defaultSet = "。，,.?？！!"

func TestTrimTrailing(t *testing.T) {
	for _, tt := range []struct {
		in, want string
	}{
		{"你好。", "你好"},
		{"你好！？。", "你好"},
		{"Hello, world.", "Hello, world"},
		{"a,b,c", "a,b,c"},
		{"。。。", ""},
		{"", ""},
		{"中间。保留", "中间。保留"},
		{"wait...?!", "wait"},
	} {
		t.Run(tt.in, func(t *testing.T) {
			if got := TrimTrailing(tt.in, defaultSet); got != tt.want {
				t.Errorf("TrimTrailing(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTrimTrailingEmptySet(t *testing.T) {
	if got := TrimTrailing("keep.", ""); got != "keep." {
		t.Errorf("got %q", got)
	}
}

func TestStripEmoji(t *testing.T) {
	for _, tt := range []struct {
		name, in, want string
	}{
		{"face", "好的😀", "好的"},
		{"sun", "晴天☀️", "晴天"},
		{"dingbat", "done✅ ok", "done ok"},
		{"flag", "go🇨🇳", "go"},
		{"family zwj", "👨‍👩‍👧", ""},
		{"extended", "🫠melt", "melt"},
		{"cjk untouched", "中文，English!", "中文，English!"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripEmoji(tt.in); got != tt.want {
				t.Errorf("StripEmoji(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	n := Normalizer{RemovePunctuation: true, PunctuationSet: defaultSet, RemoveEmoji: true}
	for _, tt := range []struct {
		in, want string
	}{
		{"  今天天气不错。😀 ", "今天天气不错"},
		{"Hello world!", "Hello world"},
		{"。", ""},
		{"😀", ""},
		{"a. b.", "a. b"},
	} {
		t.Run(tt.in, func(t *testing.T) {
			if got := n.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeDisabled(t *testing.T) {
	var n Normalizer
	if got := n.Normalize(" 好的😀。 "); got != "好的😀。" {
		t.Errorf("got %q", got)
	}
}
