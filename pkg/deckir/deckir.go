package deckir

import "encoding/json"

// AssetType is the kind of asset a slide references.
type AssetType string

const (
	AssetIcon  AssetType = "icon"
	AssetImage AssetType = "image"
)

// AssetRef points an icon or image at a field key of the slide's layout.
type AssetRef struct {
	AssetType      AssetType `json:"asset_type"`
	AssetID        string    `json:"asset_id"`
	TargetFieldKey string    `json:"target_field_key,omitempty"`
}

// DeckSlide is one slide bound to a catalog layout.
type DeckSlide struct {
	SlideID             string                `json:"slide_id"`
	LayoutID            string                `json:"layout_id"`
	Fields              map[string]FieldValue `json:"fields"`
	SpeakerNotes        Notes                 `json:"speaker_notes"`
	AssetRefs           []AssetRef            `json:"asset_refs"`
	ConstraintsOverride map[string]any        `json:"constraints_override"`
}

// DeckIR is the whole deck.
type DeckIR struct {
	DeckID            string         `json:"deck_id"`
	RunID             string         `json:"run_id"`
	TemplateID        string         `json:"template_id"`
	Title             string         `json:"title"`
	Subtitle          *string        `json:"subtitle"`
	GlobalConstraints map[string]any `json:"global_constraints"`
	Slides            []DeckSlide    `json:"slides"`
}

// Clone returns a deep copy of the deck.
func (d DeckIR) Clone() DeckIR {
	out := d
	if d.Subtitle != nil {
		subtitle := *d.Subtitle
		out.Subtitle = &subtitle
	}
	out.GlobalConstraints = cloneMap(d.GlobalConstraints)
	if d.Slides != nil {
		out.Slides = make([]DeckSlide, len(d.Slides))
		for i, slide := range d.Slides {
			out.Slides[i] = slide.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the slide.
func (s DeckSlide) Clone() DeckSlide {
	out := s
	if s.Fields != nil {
		out.Fields = make(map[string]FieldValue, len(s.Fields))
		for key, value := range s.Fields {
			out.Fields[key] = value
		}
	}
	if s.AssetRefs != nil {
		out.AssetRefs = append([]AssetRef(nil), s.AssetRefs...)
	}
	out.ConstraintsOverride = cloneMap(s.ConstraintsOverride)
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = cloneAny(value)
	}
	return out
}

func cloneAny(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneAny(item)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON emits empty collections instead of null so the output always
// satisfies the schema.
func (s DeckSlide) MarshalJSON() ([]byte, error) {
	type plain DeckSlide
	out := plain(s)
	if out.Fields == nil {
		out.Fields = map[string]FieldValue{}
	}
	if out.AssetRefs == nil {
		out.AssetRefs = []AssetRef{}
	}
	return json.Marshal(out)
}

func (d DeckIR) MarshalJSON() ([]byte, error) {
	type plain DeckIR
	out := plain(d)
	if out.GlobalConstraints == nil {
		out.GlobalConstraints = map[string]any{}
	}
	if out.Slides == nil {
		out.Slides = []DeckSlide{}
	}
	return json.Marshal(out)
}
