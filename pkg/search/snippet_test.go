package search

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSnippetHighlightsFirstOccurrence(t *testing.T) {
	text := "The quicksort algorithm partitions the input and sorts recursively. quicksort appears twice."
	got := Snippet(text, "QUICKSORT")
	if !strings.Contains(got, "**quicksort**") {
		t.Fatalf("missing highlight: %q", got)
	}
	if strings.Count(got, "**") != 2 {
		t.Fatalf("only the first occurrence should be highlighted: %q", got)
	}
}

func TestSnippetEllipses(t *testing.T) {
	long := strings.Repeat("a", 300) + " needle " + strings.Repeat("b", 300)
	got := Snippet(long, "needle")
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected leading and trailing ellipses: %q", got)
	}
	if !strings.Contains(got, "**needle**") {
		t.Fatalf("missing highlight: %q", got)
	}
}

func TestSnippetShortTextNoEllipses(t *testing.T) {
	got := Snippet("short text with needle inside", "needle")
	if strings.Contains(got, "...") {
		t.Fatalf("short text needs no ellipses: %q", got)
	}
	if got != "short text with **needle** inside" {
		t.Fatalf("unexpected snippet: %q", got)
	}
}

func TestSnippetTermAbsent(t *testing.T) {
	got := Snippet("nothing to see here", "zebra")
	if strings.Contains(got, "**") {
		t.Fatalf("absent term must not be highlighted: %q", got)
	}
}

func TestSnippetMultibyteSafe(t *testing.T) {
	text := strings.Repeat("é", 200) + " cible " + strings.Repeat("é", 200)
	got := Snippet(text, "cible")
	if !strings.Contains(got, "**cible**") {
		t.Fatalf("missing highlight: %q", got)
	}
	for _, r := range got {
		if r == '�' {
			t.Fatalf("snippet split a rune: %q", got)
		}
	}
}

func TestSnippetStableUnderLengthChangingFold(t *testing.T) {
	// Lowercasing İ (U+0130) grows it from 2 bytes to 3, so an offset taken
	// from a lowered copy would point into the middle of a rune here.
	text := strings.Repeat("İ", 10) + " target here"
	got := Snippet(text, "target")
	if !utf8.ValidString(got) {
		t.Fatalf("snippet is not valid UTF-8: %q", got)
	}
	if !strings.Contains(got, "**target**") {
		t.Fatalf("missing highlight: %q", got)
	}
}

func TestSnippetMatchesKelvinSign(t *testing.T) {
	got := Snippet("measured in Kelvin units", "kelvin")
	if !strings.Contains(got, "**Kelvin**") {
		t.Fatalf("Kelvin sign should fold to k: %q", got)
	}
}

func TestSnippetContextCountsRunes(t *testing.T) {
	text := strings.Repeat("é", 200) + "needle" + strings.Repeat("é", 200)
	got := Snippet(text, "needle")
	mark := strings.Index(got, "**")
	if mark < 0 {
		t.Fatalf("missing highlight: %q", got)
	}
	// "..." plus snippetRadius runes of context before the match.
	if n := utf8.RuneCountInString(got[:mark]); n != snippetRadius+3 {
		t.Fatalf("want %d runes of leading context, got %d: %q", snippetRadius, n-3, got)
	}
}

func TestPageOf(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	page, total := PageOf(items, 1)
	if total != 3 || len(page) != 10 || page[0] != 0 {
		t.Fatalf("page 1: got %d items, %d pages", len(page), total)
	}
	page, _ = PageOf(items, 3)
	if len(page) != 5 || page[0] != 20 {
		t.Fatalf("page 3: got %v", page)
	}
	if page, total = PageOf(items, 4); page != nil || total != 3 {
		t.Fatalf("out of range page must be empty, got %v (%d pages)", page, total)
	}
	if page, total = PageOf([]int{}, 1); page != nil || total != 0 {
		t.Fatalf("empty input: got %v (%d pages)", page, total)
	}
}
