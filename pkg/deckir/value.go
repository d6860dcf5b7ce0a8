package deckir

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

type valueKind uint8

const (
	kindText valueKind = iota
	kindBullets
)

// FieldValue is either a single text run or an ordered list of bullets.
// The zero value is empty text.
type FieldValue struct {
	kind    valueKind
	text    string
	bullets []string
}

// TextValue builds a scalar field value.
func TextValue(text string) FieldValue {
	return FieldValue{kind: kindText, text: text}
}

// BulletValue builds a bullet-list field value.
func BulletValue(items ...string) FieldValue {
	return FieldValue{kind: kindBullets, bullets: append([]string{}, items...)}
}

// IsBullets reports whether the value is a bullet list.
func (v FieldValue) IsBullets() bool {
	return v.kind == kindBullets
}

// Text returns the scalar text, or the bullets joined by sep.
func (v FieldValue) Text(sep string) string {
	if v.kind == kindBullets {
		return strings.Join(v.bullets, sep)
	}
	return v.text
}

// Items returns a copy of the bullets; a scalar is a single item.
func (v FieldValue) Items() []string {
	if v.kind == kindBullets {
		return append([]string{}, v.bullets...)
	}
	return []string{v.text}
}

// Len is the number of bullets, or 1 for a scalar.
func (v FieldValue) Len() int {
	if v.kind == kindBullets {
		return len(v.bullets)
	}
	return 1
}

// Equal reports whether both values have the same kind and content.
func (v FieldValue) Equal(other FieldValue) bool {
	if v.kind != other.kind {
		return false
	}
	if v.kind == kindText {
		return v.text == other.text
	}
	if len(v.bullets) != len(other.bullets) {
		return false
	}
	for i := range v.bullets {
		if v.bullets[i] != other.bullets[i] {
			return false
		}
	}
	return true
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.kind == kindBullets {
		return json.Marshal(append([]string{}, v.bullets...))
	}
	return json.Marshal(v.text)
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []string
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return errors.New("deckir: bullet list must contain only strings")
		}
		*v = BulletValue(items...)
		return nil
	}
	var text string
	if err := json.Unmarshal(trimmed, &text); err != nil {
		return errors.New("deckir: field value must be a string or an array of strings")
	}
	*v = TextValue(text)
	return nil
}

// Notes are speaker notes: free text or a structured annotation map.
type Notes struct {
	structured bool
	text       string
	fields     map[string]any
}

// PlainNotes builds free-text notes.
func PlainNotes(text string) Notes {
	return Notes{text: text}
}

// StructuredNotes builds notes from an annotation map.
func StructuredNotes(fields map[string]any) Notes {
	return Notes{structured: true, fields: cloneMap(fields)}
}

// IsStructured reports whether the notes hold an annotation map.
func (n Notes) IsStructured() bool {
	return n.structured
}

// Fields returns a copy of the annotation map, nil for plain notes.
func (n Notes) Fields() map[string]any {
	if !n.structured {
		return nil
	}
	return cloneMap(n.fields)
}

// Text renders the notes as text. Structured notes serialise to compact
// JSON with sorted keys, so the result is deterministic.
func (n Notes) Text() string {
	if !n.structured {
		return n.text
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(n.fields); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Equal compares notes by kind and serialised text.
func (n Notes) Equal(other Notes) bool {
	return n.structured == other.structured && n.Text() == other.Text()
}

func (n Notes) MarshalJSON() ([]byte, error) {
	if n.structured {
		if n.fields == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(n.fields)
	}
	return json.Marshal(n.text)
}

func (n *Notes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*n = PlainNotes("")
	case len(trimmed) > 0 && trimmed[0] == '{':
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var fields map[string]any
		if err := dec.Decode(&fields); err != nil {
			return err
		}
		*n = Notes{structured: true, fields: fields}
	default:
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return errors.New("deckir: speaker notes must be a string, an object or null")
		}
		*n = PlainNotes(text)
	}
	return nil
}
