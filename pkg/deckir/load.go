package deckir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads, validates and decodes the DeckIR document at path.
func Load(path string) (DeckIR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DeckIR{}, fmt.Errorf("deckir: read %s: %w", path, err)
	}
	deck, err := Parse(data)
	if err != nil {
		return DeckIR{}, fmt.Errorf("deckir: %s: %w", path, err)
	}
	return deck, nil
}

// Parse validates data against the schema and decodes it. Slide ids must be
// unique within the deck.
func Parse(data []byte) (DeckIR, error) {
	if err := Validate(data); err != nil {
		return DeckIR{}, err
	}
	var deck DeckIR
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&deck); err != nil {
		return DeckIR{}, &ValidationError{Issues: []string{err.Error()}}
	}
	if issues := duplicateSlideIDs(deck); len(issues) > 0 {
		return DeckIR{}, &ValidationError{Issues: issues}
	}
	return deck, nil
}

func duplicateSlideIDs(deck DeckIR) []string {
	var issues []string
	first := make(map[string]int, len(deck.Slides))
	for i, slide := range deck.Slides {
		if prev, ok := first[slide.SlideID]; ok {
			issues = append(issues, fmt.Sprintf("slides[%d]: duplicate slide_id %q (first at slides[%d])", i, slide.SlideID, prev))
			continue
		}
		first[slide.SlideID] = i
	}
	return issues
}

// Marshal encodes the deck as indented JSON.
func Marshal(deck DeckIR) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(deck); err != nil {
		return nil, fmt.Errorf("deckir: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Write stores the deck as JSON at path.
func Write(path string, deck DeckIR) error {
	data, err := Marshal(deck)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("deckir: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("deckir: write %s: %w", path, err)
	}
	return nil
}
