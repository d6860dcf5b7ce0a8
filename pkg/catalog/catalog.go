package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownLayout reports a layout id that is not present in the catalog.
var ErrUnknownLayout = errors.New("catalog: unknown layout")

// FieldType is the closed set of placeholder roles a field can play.
type FieldType string

const (
	FieldTitle       FieldType = "title"
	FieldSubtitle    FieldType = "subtitle"
	FieldBody        FieldType = "body"
	FieldContent     FieldType = "content"
	FieldImage       FieldType = "image"
	FieldDate        FieldType = "date"
	FieldFooter      FieldType = "footer"
	FieldSlideNumber FieldType = "slide_number"
)

// Valid reports whether t belongs to the closed set.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTitle, FieldSubtitle, FieldBody, FieldContent, FieldImage,
		FieldDate, FieldFooter, FieldSlideNumber:
		return true
	}
	return false
}

// IsBody reports whether the field holds body text.
func (t FieldType) IsBody() bool {
	return t == FieldBody || t == FieldContent
}

// FieldSchema describes one addressable placeholder of a layout.
type FieldSchema struct {
	FieldKey string    `json:"field_key" yaml:"field_key"`
	Type     FieldType `json:"type" yaml:"type"`
	Required bool      `json:"required" yaml:"required"`
	// PlaceholderIdx optionally records the positional slot of the field,
	// used to recover the key when the template lost its metadata.
	PlaceholderIdx *int `json:"placeholder_idx,omitempty" yaml:"placeholder_idx,omitempty"`
}

// Constraints are the per-layout capacity budgets. A zero bullet or
// character budget means the layout takes no body content.
type Constraints struct {
	MaxTitleChars     int `json:"max_title_chars" yaml:"max_title_chars"`
	MaxBullets        int `json:"max_bullets" yaml:"max_bullets"`
	MaxWordsPerBullet int `json:"max_words_per_bullet" yaml:"max_words_per_bullet"`
	MaxTotalBodyChars int `json:"max_total_body_chars" yaml:"max_total_body_chars"`
	BodyLineBudget    int `json:"body_line_budget" yaml:"body_line_budget"`
	AvgCharsPerLine   int `json:"avg_chars_per_line" yaml:"avg_chars_per_line"`
}

// Entry is one layout of the catalog.
type Entry struct {
	LayoutID           string        `json:"layout_id" yaml:"layout_id"`
	TemplateLayoutName string        `json:"template_layout_name" yaml:"template_layout_name"`
	MasterIndex        int           `json:"master_index" yaml:"master_index"`
	LayoutIndex        int           `json:"layout_index" yaml:"layout_index"`
	MVP                bool          `json:"mvp,omitempty" yaml:"mvp,omitempty"`
	Fields             []FieldSchema `json:"fields" yaml:"fields"`
	Constraints        Constraints   `json:"constraints" yaml:"constraints"`
}

// Field returns the schema for key.
func (e Entry) Field(key string) (FieldSchema, bool) {
	for _, field := range e.Fields {
		if field.FieldKey == key {
			return field, true
		}
	}
	return FieldSchema{}, false
}

// FieldKeyForIdx returns the field recorded for a placeholder slot.
func (e Entry) FieldKeyForIdx(idx int) (string, bool) {
	for _, field := range e.Fields {
		if field.PlaceholderIdx != nil && *field.PlaceholderIdx == idx {
			return field.FieldKey, true
		}
	}
	return "", false
}

// Catalog is the loaded layout registry. Treat it as read-only once
// loaded.
type Catalog struct {
	Version       string  `json:"version" yaml:"version"`
	TemplatePath  string  `json:"template_path,omitempty" yaml:"template_path,omitempty"`
	GeneratedFrom string  `json:"generated_from,omitempty" yaml:"generated_from,omitempty"`
	Layouts       []Entry `json:"layouts" yaml:"layouts"`
}

// Lookup returns the first entry with the given layout id.
func (c *Catalog) Lookup(layoutID string) (Entry, bool) {
	if c == nil || layoutID == "" {
		return Entry{}, false
	}
	for _, entry := range c.Layouts {
		if entry.LayoutID == layoutID {
			return entry, true
		}
	}
	return Entry{}, false
}

// Resolve is Lookup returning ErrUnknownLayout on a miss.
func (c *Catalog) Resolve(layoutID string) (Entry, error) {
	entry, ok := c.Lookup(layoutID)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownLayout, layoutID)
	}
	return entry, nil
}

// LayoutIDs lists the ids in catalog order.
func (c *Catalog) LayoutIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.Layouts))
	for _, entry := range c.Layouts {
		ids = append(ids, entry.LayoutID)
	}
	return ids
}
