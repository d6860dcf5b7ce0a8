package render

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans a text run before it is written to a slide.
type Sanitizer interface {
	Sanitize(text string) string
}

// MarkupStripper removes any HTML markup from text runs, leaving plain
// text with entities decoded.
type MarkupStripper struct {
	policy *bluemonday.Policy
}

// NewMarkupStripper builds a stripper on bluemonday's strict policy.
func NewMarkupStripper() *MarkupStripper {
	return &MarkupStripper{policy: bluemonday.StrictPolicy()}
}

func (m *MarkupStripper) Sanitize(text string) string {
	return html.UnescapeString(m.policy.Sanitize(text))
}
