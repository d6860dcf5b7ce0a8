package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-deckgen/pkg/pptx"
)

// AnnotateOptions tunes Annotate.
type AnnotateOptions struct {
	// DryRun reports the assignments without touching the template.
	DryRun bool
	// MVPOnly limits annotation to layouts whose names match the MVP
	// patterns.
	MVPOnly bool
	// Overwrite replaces field keys that are already present.
	Overwrite bool
}

// Assignment records the field key chosen for one layout placeholder.
type Assignment struct {
	MasterIndex int                  `json:"master_index"`
	LayoutIndex int                  `json:"layout_index"`
	LayoutName  string               `json:"layout_name"`
	ShapeID     int                  `json:"shape_id"`
	ShapeName   string               `json:"shape_name"`
	Type        pptx.PlaceholderType `json:"type"`
	FieldKey    string               `json:"field_key"`
	// Kept is true when the placeholder already carried a key that was
	// left in place.
	Kept bool `json:"kept"`
}

var mvpPatterns = []string{
	"title with image",
	"title with half image",
	"section break",
	"one content",
	"two content",
	"three content",
	"four content",
	"header only",
	"statement",
	"agenda",
	"only title",
}

// IsMVPLayoutName reports whether a layout name matches the MVP patterns.
func IsMVPLayoutName(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range mvpPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Annotate writes stable field keys into the metadata of layout
// placeholders. Keys derive from the placeholder type and its horizontal
// position among placeholders of the same type.
func Annotate(pres *pptx.Presentation, opts AnnotateOptions) ([]Assignment, error) {
	var out []Assignment
	for _, master := range pres.Masters() {
		for _, layout := range master.Layouts {
			if opts.MVPOnly && !IsMVPLayoutName(layout.Name) {
				continue
			}
			assignments, err := annotateLayout(layout, opts)
			if err != nil {
				return nil, fmt.Errorf("catalog: annotate %q: %w", layout.Name, err)
			}
			out = append(out, assignments...)
		}
	}
	return out, nil
}

type positioned struct {
	ph        pptx.Placeholder
	left, top float64
}

func annotateLayout(layout *pptx.Layout, opts AnnotateOptions) ([]Assignment, error) {
	placeholders, err := layout.Placeholders()
	if err != nil {
		return nil, err
	}

	var order []pptx.PlaceholderType
	groups := make(map[pptx.PlaceholderType][]positioned)
	for _, ph := range placeholders {
		if _, ok := groups[ph.Type]; !ok {
			order = append(order, ph.Type)
		}
		p := positioned{ph: ph, left: 999, top: 999}
		if ph.HasGeometry {
			x, y, _, _ := ph.Geometry.Inches()
			if x != 0 {
				p.left = x
			}
			if y != 0 {
				p.top = y
			}
		}
		groups[ph.Type] = append(groups[ph.Type], p)
	}

	var out []Assignment
	for _, typ := range order {
		group := groups[typ]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].left != group[j].left {
				return group[i].left < group[j].left
			}
			return group[i].top < group[j].top
		})
		for i, p := range group {
			a := Assignment{
				MasterIndex: layout.MasterIndex,
				LayoutIndex: layout.Index,
				LayoutName:  layout.Name,
				ShapeID:     p.ph.ShapeID,
				ShapeName:   p.ph.Name,
				Type:        typ,
				FieldKey:    FieldKeyFor(typ, i, len(group)),
			}
			if p.ph.FieldKey != "" && !opts.Overwrite {
				a.FieldKey, a.Kept = p.ph.FieldKey, true
			} else if !opts.DryRun {
				if err := layout.SetFieldKey(p.ph.ShapeID, a.FieldKey); err != nil {
					return nil, err
				}
			}
			out = append(out, a)
		}
	}
	return out, nil
}

// FieldKeyFor names the placeholder at position among total placeholders of
// the same type, e.g. ph_title, ph_body_left, ph_col3 or ph_image_center.
func FieldKeyFor(typ pptx.PlaceholderType, position, total int) string {
	base := string(typ)
	if total == 1 {
		if typ == pptx.TypeContent {
			return "ph_body"
		}
		return "ph_" + base
	}

	switch typ {
	case pptx.TypeContent, pptx.TypeBody:
		if total == 2 {
			return [...]string{"ph_body_left", "ph_body_right"}[position]
		}
		return fmt.Sprintf("ph_col%d", position+1)
	case pptx.TypeImage:
		switch total {
		case 2:
			return [...]string{"ph_image_left", "ph_image_right"}[position]
		case 3:
			return [...]string{"ph_image_left", "ph_image_center", "ph_image_right"}[position]
		}
		return fmt.Sprintf("ph_image_%d", position+1)
	}
	return fmt.Sprintf("ph_%s_%d", base, position+1)
}
