package deckir

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrInvalid reports a document that does not satisfy the DeckIR contract.
var ErrInvalid = errors.New("deckir: invalid document")

// ValidationError lists every contract issue found in a document.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(e.Issues, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

//go:embed schema/deckir.yaml
var schemaDocument []byte

var (
	schemaOnce sync.Once
	deckSchema *openapi3.Schema
	schemaErr  error
)

// Schema returns the embedded OpenAPI document describing DeckIR.
func Schema() []byte {
	return append([]byte(nil), schemaDocument...)
}

func loadSchema() (*openapi3.Schema, error) {
	schemaOnce.Do(func() {
		ctx := context.Background()
		loader := &openapi3.Loader{Context: ctx}
		doc, err := loader.LoadFromData(schemaDocument)
		if err != nil {
			schemaErr = fmt.Errorf("deckir: load schema: %w", err)
			return
		}
		if err := doc.Validate(ctx); err != nil {
			schemaErr = fmt.Errorf("deckir: schema: %w", err)
			return
		}
		ref := doc.Components.Schemas["DeckIR"]
		if ref == nil || ref.Value == nil {
			schemaErr = errors.New("deckir: schema has no DeckIR component")
			return
		}
		deckSchema = ref.Value
	})
	return deckSchema, schemaErr
}

// Validate checks raw JSON against the DeckIR schema. It returns a
// *ValidationError carrying every issue, or nil.
func Validate(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return &ValidationError{Issues: []string{fmt.Sprintf("malformed JSON: %v", err)}}
	}

	if err := schema.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		return &ValidationError{Issues: flattenIssues(err)}
	}
	return nil
}

func flattenIssues(err error) []string {
	if multi, ok := err.(openapi3.MultiError); ok && len(multi) > 0 {
		var out []string
		for _, item := range multi {
			out = append(out, flattenIssues(item)...)
		}
		return out
	}
	return []string{err.Error()}
}
