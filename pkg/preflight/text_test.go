package preflight_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/goliatone/go-deckgen/pkg/deckir"
	"github.com/goliatone/go-deckgen/pkg/preflight"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		text  string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"Hello World Test", 12, "Hello Wor..."},
		{"aaaaaaaaaaaa bbbbbbbbb", 16, "aaaaaaaaaaaa..."},
		{"aaaaaaaa bbbbbbbbbb", 15, "aaaaaaaa bbb..."},
		{"abcdef", 3, "..."},
		{"abcdef", 2, ".."},
		{"abc", 0, ""},
		{"ééééé", 4, "é..."},
	}
	for _, tc := range cases {
		if got := preflight.Truncate(tc.text, tc.limit); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.text, tc.limit, got, tc.want)
		}
	}
}

func TestTruncateNeverExceedsLimit(t *testing.T) {
	texts := []string{
		strings.Repeat("A", 150),
		"The quick brown fox jumps over the lazy dog near the riverbank",
		"one two three four five six seven eight nine ten eleven twelve",
		"ünïcödé wörds wïth àccents everywhere in this sentence",
	}
	for _, text := range texts {
		for limit := 4; limit <= 80; limit++ {
			got := preflight.Truncate(text, limit)
			if n := utf8.RuneCountInString(got); n > limit {
				t.Fatalf("Truncate(%q, %d) has %d chars", text, limit, n)
			}
			if got != text && !strings.HasSuffix(got, preflight.Ellipsis) {
				t.Fatalf("Truncate(%q, %d) = %q, missing ellipsis", text, limit, got)
			}
		}
	}
}

func TestShorten(t *testing.T) {
	cases := []struct {
		text  string
		words int
		want  string
	}{
		{"One two three four five six", 3, "One two three..."},
		{"One two three", 3, "One two three"},
		{"  spaced   out   words  ", 2, "spaced out..."},
		{"anything goes", 0, "anything goes"},
	}
	for _, tc := range cases {
		if got := preflight.Shorten(tc.text, tc.words); got != tc.want {
			t.Errorf("Shorten(%q, %d) = %q, want %q", tc.text, tc.words, got, tc.want)
		}
	}
}

func TestEstimateLines(t *testing.T) {
	cases := []struct {
		chars, perLine, want int
	}{
		{100, 50, 2},
		{101, 50, 3},
		{1, 50, 1},
		{0, 50, 0},
		{100, 0, 0},
	}
	for _, tc := range cases {
		if got := preflight.EstimateLines(tc.chars, tc.perLine); got != tc.want {
			t.Errorf("EstimateLines(%d, %d) = %d, want %d", tc.chars, tc.perLine, got, tc.want)
		}
	}
}

func TestCounts(t *testing.T) {
	if got := preflight.CountBullets(deckir.TextValue("")); got != 0 {
		t.Fatalf("empty text counts %d bullets", got)
	}
	if got := preflight.CountBullets(deckir.TextValue("Single")); got != 1 {
		t.Fatalf("scalar counts %d bullets", got)
	}
	if got := preflight.CountBullets(deckir.BulletValue()); got != 0 {
		t.Fatalf("empty list counts %d bullets", got)
	}
	list := deckir.BulletValue("one two", "three four five", "é")
	if got := preflight.CountBullets(list); got != 3 {
		t.Fatalf("list counts %d bullets", got)
	}
	if got := preflight.CountChars(list); got != 23 {
		t.Fatalf("list counts %d chars, want 23", got)
	}
	if got := preflight.MaxWords(list); got != 3 {
		t.Fatalf("max words = %d, want 3", got)
	}
}
