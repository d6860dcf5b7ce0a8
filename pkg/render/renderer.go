package render

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/goliatone/go-deckgen/pkg/catalog"
	"github.com/goliatone/go-deckgen/pkg/deckir"
	"github.com/goliatone/go-deckgen/pkg/drift"
	"github.com/goliatone/go-deckgen/pkg/pptx"
)

// Renderer binds decks to one template through one catalog.
type Renderer struct {
	templatePath string
	catalog      *catalog.Catalog
	assets       *Registry
	sanitizer    Sanitizer
	logger       *zap.Logger
}

// New constructs a Renderer for the template at templatePath.
func New(templatePath string, cat *catalog.Catalog, options ...Option) (*Renderer, error) {
	if templatePath == "" {
		return nil, errors.New("render: template path is required")
	}
	if cat == nil {
		return nil, errors.New("render: catalog is required")
	}
	r := &Renderer{
		templatePath: templatePath,
		catalog:      cat,
		assets:       NewRegistry(),
		logger:       zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

type plannedSlide struct {
	src    deckir.DeckSlide
	entry  catalog.Entry
	layout *pptx.Layout
}

// Render writes deck to output and returns the trace of what was bound.
// The template is re-checked for drift first. Nothing is written unless
// every slide renders.
func (r *Renderer) Render(ctx context.Context, deck deckir.DeckIR, output string) (*RenderMap, error) {
	pres, err := pptx.Open(r.templatePath)
	if err != nil {
		return nil, fmt.Errorf("render: open template: %w", err)
	}
	if findings := drift.Validate(pres, r.catalog); len(findings) > 0 {
		return nil, &DriftError{Findings: findings}
	}

	plan := make([]plannedSlide, 0, len(deck.Slides))
	seen := make(map[string]bool, len(deck.Slides))
	for _, src := range deck.Slides {
		if seen[src.SlideID] {
			return nil, &SlideError{SlideID: src.SlideID, Err: ErrDuplicateSlide}
		}
		seen[src.SlideID] = true
		entry, ok := r.catalog.Lookup(src.LayoutID)
		if !ok {
			return nil, &SlideError{SlideID: src.SlideID, Err: fmt.Errorf("%w: %s", ErrUnknownLayout, src.LayoutID)}
		}
		layout, ok := pres.LayoutAt(entry.MasterIndex, entry.LayoutIndex)
		if !ok {
			return nil, &SlideError{SlideID: src.SlideID, Err: fmt.Errorf("%w: %s is not in the template", ErrUnknownLayout, src.LayoutID)}
		}
		plan = append(plan, plannedSlide{src: src, entry: entry, layout: layout})
	}

	if err := pres.RemoveSlides(); err != nil {
		return nil, fmt.Errorf("render: clear example slides: %w", err)
	}

	renderMap := NewRenderMap()
	for i, item := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := r.renderSlide(pres, i, item)
		if err != nil {
			return nil, err
		}
		renderMap.add(entry)
	}

	if err := pres.Save(output); err != nil {
		return nil, fmt.Errorf("render: save %s: %w", output, err)
	}
	r.logger.Info("deck rendered",
		zap.String("deck_id", deck.DeckID),
		zap.Int("slides", renderMap.Len()),
		zap.String("output", output),
	)
	return renderMap, nil
}

func (r *Renderer) renderSlide(pres *pptx.Presentation, position int, item plannedSlide) (Entry, error) {
	src := item.src
	slideErr := func(key string, err error) error {
		return &SlideError{SlideID: src.SlideID, FieldKey: key, Err: err}
	}

	slide, err := pres.AddSlide(item.layout)
	if err != nil {
		return Entry{}, slideErr("", err)
	}
	layoutPlaceholders, err := placeholdersByIdx(item.layout)
	if err != nil {
		return Entry{}, slideErr("", err)
	}

	bound := make(map[string]*pptx.Shape)
	for _, shape := range slide.Shapes() {
		key := r.resolveKey(shape, item, layoutPlaceholders)
		if key == "" {
			continue
		}
		bound[key] = shape
		value, ok := src.Fields[key]
		if !ok {
			continue
		}
		if err := r.bindText(shape, value); err != nil {
			return Entry{}, slideErr(key, err)
		}
	}

	for _, ref := range src.AssetRefs {
		key := ref.TargetFieldKey
		if key == "" {
			return Entry{}, slideErr("", fmt.Errorf("%w: asset %q has no target_field_key", ErrAssetTarget, ref.AssetID))
		}
		shape, ok := bound[key]
		if !ok {
			return Entry{}, slideErr(key, fmt.Errorf("%w: no placeholder for asset %q", ErrAssetTarget, ref.AssetID))
		}
		path, err := r.assets.Resolve(ref)
		if err != nil {
			return Entry{}, slideErr(key, err)
		}
		placed, err := placeImage(slide, shape, path)
		if err != nil {
			return Entry{}, slideErr(key, err)
		}
		bound[key] = placed
	}

	if err := slide.SetNotes(src.SpeakerNotes.Text()); err != nil {
		return Entry{}, slideErr("", fmt.Errorf("speaker notes: %w", err))
	}

	keys := make([]string, 0, len(bound))
	for key := range bound {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	r.logger.Debug("slide rendered",
		zap.String("slide_id", src.SlideID),
		zap.String("layout_id", src.LayoutID),
		zap.Int("slide_index", position),
		zap.Strings("field_keys", keys),
	)
	return Entry{SlideID: src.SlideID, SlideIndex: position, FieldKeys: keys}, nil
}

func placeholdersByIdx(layout *pptx.Layout) (map[int]pptx.Placeholder, error) {
	placeholders, err := layout.Placeholders()
	if err != nil {
		return nil, err
	}
	out := make(map[int]pptx.Placeholder, len(placeholders))
	for _, ph := range placeholders {
		if _, taken := out[ph.Idx]; !taken {
			out[ph.Idx] = ph
		}
	}
	return out, nil
}

// resolveKey reads the shape's field key, falling back to the layout
// placeholder in the same slot and then to the catalog. Keys recovered
// from a fallback are written back so the next pass reads them directly.
func (r *Renderer) resolveKey(shape *pptx.Shape, item plannedSlide, layoutPlaceholders map[int]pptx.Placeholder) string {
	if key := shape.FieldKey(); key != "" {
		return key
	}
	idx, ok := shape.PlaceholderIdx()
	if !ok {
		return ""
	}

	ph, inLayout := layoutPlaceholders[idx]
	key := ph.FieldKey
	if key == "" {
		key, _ = item.entry.FieldKeyForIdx(idx)
		if key == "" {
			return ""
		}
		if inLayout {
			if err := item.layout.SetFieldKey(ph.ShapeID, key); err != nil {
				r.logger.Warn("layout field key not healed", zap.String("layout", item.layout.Name), zap.Error(err))
			} else {
				r.logger.Info("layout field key healed from catalog",
					zap.String("layout_id", item.entry.LayoutID),
					zap.Int("placeholder_idx", idx),
					zap.String("field_key", key),
				)
			}
		}
	}
	shape.SetFieldKey(key)
	return key
}

func (r *Renderer) bindText(shape *pptx.Shape, value deckir.FieldValue) error {
	if !shape.HasTextFrame() {
		r.logger.Debug("placeholder has no text frame", zap.String("shape", shape.Name()))
		return nil
	}
	items := value.Items()
	if r.sanitizer != nil {
		for i, item := range items {
			items[i] = r.sanitizer.Sanitize(item)
		}
	}
	if !value.IsBullets() {
		return shape.SetParagraphs(items[:1])
	}
	return shape.SetParagraphs(items)
}

// placeImage fills an image placeholder in place, or drops a new picture
// over the placeholder's area for any other shape.
func placeImage(slide *pptx.Slide, shape *pptx.Shape, path string) (*pptx.Shape, error) {
	if shape.PlaceholderType() == pptx.TypeImage {
		pic, err := slide.InsertPicture(shape, path)
		if err == nil {
			return pic, nil
		}
		if !errors.Is(err, pptx.ErrPictureUnsupported) {
			return nil, err
		}
	}
	geom, ok := shape.Geometry()
	if !ok {
		return nil, fmt.Errorf("%w: placeholder %q has no position", ErrAssetTarget, shape.Name())
	}
	return slide.AddPicture(path, geom)
}
