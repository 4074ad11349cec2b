// Package textproc cleans up raw transcripts before they are inserted.
package textproc

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Emoji is the fixed set of pictographic code points removed by
// StripEmoji, including the joiner and variation selector that glue
// emoji sequences together.
var Emoji = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200d, Hi: 0x200d, Stride: 1},
		{Lo: 0x2600, Hi: 0x26ff, Stride: 1},
		{Lo: 0x2700, Hi: 0x27bf, Stride: 1},
		{Lo: 0xfe0f, Hi: 0xfe0f, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1f1e6, Hi: 0x1f1ff, Stride: 1},
		{Lo: 0x1f300, Hi: 0x1f9ff, Stride: 1},
		{Lo: 0x1fa70, Hi: 0x1faff, Stride: 1},
	},
}

type Normalizer struct {
	RemovePunctuation bool
	PunctuationSet    string
	RemoveEmoji       bool
}

// Normalize strips emoji, then trailing punctuation, and trims surrounding
// whitespace. Whitespace left at the end by emoji removal does not shield
// punctuation before it.
func (n Normalizer) Normalize(text string) string {
	if n.RemoveEmoji {
		text = StripEmoji(text)
	}
	if n.RemovePunctuation {
		text = TrimTrailing(strings.TrimRightFunc(text, unicode.IsSpace), n.PunctuationSet)
	}
	return strings.TrimSpace(text)
}

func StripEmoji(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(Emoji, r) {
			return -1
		}
		return r
	}, text)
}

// TrimTrailing removes runes in set from the end of text, stopping at the
// first rune not in set.
func TrimTrailing(text, set string) string {
	if set == "" {
		return text
	}
	for text != "" {
		r, size := utf8.DecodeLastRuneInString(text)
		if !strings.ContainsRune(set, r) {
			break
		}
		text = text[:len(text)-size]
	}
	return text
}
