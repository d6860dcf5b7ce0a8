package render

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownLayout aborts a render whose deck references a layout the
	// catalog does not describe.
	ErrUnknownLayout = errors.New("render: unknown layout_id")
	// ErrDuplicateSlide aborts a render whose deck repeats a slide_id.
	ErrDuplicateSlide = errors.New("render: duplicate slide_id")
	// ErrAssetTarget reports an asset whose target field key is empty or not
	// bound on the slide.
	ErrAssetTarget = errors.New("render: unresolvable asset target")
	// ErrAssetMissing reports an asset that cannot be located on disk.
	ErrAssetMissing = errors.New("render: asset not found")
	// ErrDrift is returned when the catalog no longer describes the template.
	ErrDrift = errors.New("render: catalog does not match template")
)

// SlideError names the slide, and field when known, that stopped a render.
type SlideError struct {
	SlideID  string
	FieldKey string
	Err      error
}

func (e *SlideError) Error() string {
	if e.FieldKey != "" {
		return fmt.Sprintf("render: slide %q field %q: %v", e.SlideID, e.FieldKey, e.Err)
	}
	return fmt.Sprintf("render: slide %q: %v", e.SlideID, e.Err)
}

func (e *SlideError) Unwrap() error {
	return e.Err
}

// DriftError carries the drift findings that blocked a render.
type DriftError struct {
	Findings []string
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDrift, strings.Join(e.Findings, "; "))
}

func (e *DriftError) Unwrap() error {
	return ErrDrift
}
