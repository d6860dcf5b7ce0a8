package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a catalog from a JSON or YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes catalog data. JSON is tried first, then YAML; source only
// labels errors.
func Parse(data []byte, source string) (*Catalog, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("catalog: file %s is empty", source)
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		cat = Catalog{}
		if yerr := yaml.Unmarshal(data, &cat); yerr != nil {
			return nil, fmt.Errorf("catalog: parse %s: invalid JSON (%w) or YAML (%v)", source, err, yerr)
		}
	}

	for i, entry := range cat.Layouts {
		if err := checkEntry(entry); err != nil {
			return nil, fmt.Errorf("catalog: %s layout %d: %w", source, i, err)
		}
	}
	return &cat, nil
}

// checkEntry rejects values no template could satisfy. Missing or duplicate
// layout ids are left for drift validation to report; field keys must be
// unique within the layout.
func checkEntry(entry Entry) error {
	c := entry.Constraints
	knobs := []struct {
		name  string
		value int
	}{
		{"max_title_chars", c.MaxTitleChars},
		{"max_bullets", c.MaxBullets},
		{"max_words_per_bullet", c.MaxWordsPerBullet},
		{"max_total_body_chars", c.MaxTotalBodyChars},
		{"body_line_budget", c.BodyLineBudget},
		{"avg_chars_per_line", c.AvgCharsPerLine},
	}
	for _, knob := range knobs {
		if knob.value < 0 {
			return fmt.Errorf("constraint %s is negative (%d)", knob.name, knob.value)
		}
	}
	seen := make(map[string]bool, len(entry.Fields))
	for _, field := range entry.Fields {
		if strings.TrimSpace(field.FieldKey) == "" {
			return fmt.Errorf("field with empty field_key")
		}
		if seen[field.FieldKey] {
			return fmt.Errorf("duplicate field_key %q", field.FieldKey)
		}
		seen[field.FieldKey] = true
		if !field.Type.Valid() {
			return fmt.Errorf("field %q has unknown type %q", field.FieldKey, field.Type)
		}
	}
	return nil
}

// Marshal encodes the catalog as indented JSON, or YAML when format is
// "yaml".
func (c *Catalog) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.Marshal(c)
	default:
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// Save writes the catalog to path, choosing the encoding from the file
// extension.
func (c *Catalog) Save(path string) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	data, err := c.Marshal(format)
	if err != nil {
		return fmt.Errorf("catalog: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("catalog: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("catalog: write %s: %w", path, err)
	}
	return nil
}
