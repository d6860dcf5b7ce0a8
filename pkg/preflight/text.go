package preflight

import (
	"strings"
)

// Ellipsis marks shortened text.
const Ellipsis = "..."

// wordBoundaryRatio is the share of the limit a cut may back up to when
// looking for a space.
const wordBoundaryRatio = 0.7

// Truncate shortens text to at most limit characters. When a cut is needed
// it keeps limit-3 characters, backs up to the last space if that space
// sits at or past 70% of the limit, and appends an ellipsis.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 0 {
		return ""
	}
	if limit <= len(Ellipsis) {
		return Ellipsis[:limit]
	}

	cut := runes[:limit-len(Ellipsis)]
	for i := len(cut) - 1; i >= 0; i-- {
		if cut[i] == ' ' {
			if float64(i) >= wordBoundaryRatio*float64(limit) {
				cut = cut[:i]
			}
			break
		}
	}
	return strings.TrimRight(string(cut), " ") + Ellipsis
}

// Shorten keeps the first words words of text, appending an ellipsis when
// any were dropped. Non-positive budgets leave text untouched.
func Shorten(text string, words int) string {
	fields := strings.Fields(text)
	if words <= 0 || len(fields) <= words {
		return text
	}
	return strings.Join(fields[:words], " ") + Ellipsis
}
