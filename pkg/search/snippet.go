package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const snippetRadius = 100

// Snippet returns an excerpt of text around the first case-insensitive
// occurrence of term, with the matched text wrapped in ** markers and
// ellipses where the excerpt is cut. Context on each side of the match is
// measured in runes. When the term does not occur the leading part of the
// text is returned unhighlighted.
func Snippet(text, term string) string {
	if text == "" {
		return ""
	}
	start, end := -1, -1
	if term != "" {
		start, end = foldIndex(text, term)
	}
	if start < 0 {
		return clip(text, 2*snippetRadius)
	}

	lo := runesBefore(text, start, snippetRadius)
	hi := runesAfter(text, end, snippetRadius)

	var b strings.Builder
	if lo > 0 {
		b.WriteString("...")
	}
	b.WriteString(text[lo:start])
	b.WriteString("**")
	b.WriteString(text[start:end])
	b.WriteString("**")
	b.WriteString(text[end:hi])
	if hi < len(text) {
		b.WriteString("...")
	}
	return b.String()
}

func clip(text string, n int) string {
	stop := runesAfter(text, 0, n)
	if stop == len(text) {
		return text
	}
	return text[:stop] + "..."
}

// foldIndex locates the first case-insensitive occurrence of term in text,
// returning its start and end byte offsets in text, or (-1, -1). Offsets are
// found by scanning text itself rather than a lowered copy, because lowering
// can change a rune's byte length and shift every following offset.
func foldIndex(text, term string) (int, int) {
	for i := 0; i < len(text); {
		if n, ok := foldMatch(text[i:], term); ok {
			return i, i + n
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return -1, -1
}

// foldMatch reports whether s begins with a case-insensitive match of term,
// and the byte length of the matched prefix of s.
func foldMatch(s, term string) (int, bool) {
	i := 0
	for _, tr := range term {
		if i >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[i:])
		if !foldEqual(sr, tr) {
			return 0, false
		}
		i += size
	}
	return i, true
}

// foldEqual matches two runes under simple Unicode case folding, the same
// relation strings.EqualFold uses.
func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// runesBefore steps back at most n runes from byte offset i.
func runesBefore(s string, i, n int) int {
	for n > 0 && i > 0 {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
		n--
	}
	return i
}

// runesAfter steps forward at most n runes from byte offset i.
func runesAfter(s string, i, n int) int {
	for n > 0 && i < len(s) {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n--
	}
	return i
}
