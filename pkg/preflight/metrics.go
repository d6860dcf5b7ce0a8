package preflight

import (
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-deckgen/pkg/deckir"
)

// CountChars counts the characters of a value; bullets are summed without
// separators.
func CountChars(v deckir.FieldValue) int {
	total := 0
	for _, item := range v.Items() {
		total += utf8.RuneCountInString(item)
	}
	return total
}

// CountBullets is the list length, or 1 for non-blank text.
func CountBullets(v deckir.FieldValue) int {
	if v.IsBullets() {
		return v.Len()
	}
	if strings.TrimSpace(v.Text("")) == "" {
		return 0
	}
	return 1
}

// MaxWords returns the word count of the longest bullet.
func MaxWords(v deckir.FieldValue) int {
	most := 0
	for _, item := range v.Items() {
		if n := len(strings.Fields(item)); n > most {
			most = n
		}
	}
	return most
}

// EstimateLines is ceil(chars / charsPerLine); zero when charsPerLine is
// not positive.
func EstimateLines(chars, charsPerLine int) int {
	if charsPerLine <= 0 || chars <= 0 {
		return 0
	}
	return (chars + charsPerLine - 1) / charsPerLine
}
