package pptx

import "math"

// TemplateInfo summarises the master/layout/placeholder hierarchy of a
// template.
type TemplateInfo struct {
	Masters []MasterInfo `json:"masters"`
	Slides  int          `json:"slides"`
}

type MasterInfo struct {
	Index   int          `json:"index"`
	Layouts []LayoutInfo `json:"layouts"`
}

type LayoutInfo struct {
	Index        int               `json:"index"`
	Name         string            `json:"name"`
	Placeholders []PlaceholderInfo `json:"placeholders"`
}

// PlaceholderInfo reports geometry in inches rounded to two decimals.
type PlaceholderInfo struct {
	ShapeID  int             `json:"shape_id"`
	Name     string          `json:"name"`
	Type     PlaceholderType `json:"type"`
	Idx      int             `json:"idx"`
	FieldKey string          `json:"field_key,omitempty"`
	Left     float64         `json:"left_inches"`
	Top      float64         `json:"top_inches"`
	Width    float64         `json:"width_inches"`
	Height   float64         `json:"height_inches"`
}

// Inspect walks every master and layout of the presentation.
func (p *Presentation) Inspect() (TemplateInfo, error) {
	info := TemplateInfo{Slides: len(p.slides)}
	for _, master := range p.masters {
		mi := MasterInfo{Index: master.Index}
		for _, layout := range master.Layouts {
			placeholders, err := layout.Placeholders()
			if err != nil {
				return TemplateInfo{}, err
			}
			li := LayoutInfo{Index: layout.Index, Name: layout.Name}
			for _, ph := range placeholders {
				x, y, w, h := ph.Geometry.Inches()
				li.Placeholders = append(li.Placeholders, PlaceholderInfo{
					ShapeID:  ph.ShapeID,
					Name:     ph.Name,
					Type:     ph.Type,
					Idx:      ph.Idx,
					FieldKey: ph.FieldKey,
					Left:     round2(x),
					Top:      round2(y),
					Width:    round2(w),
					Height:   round2(h),
				})
			}
			mi.Layouts = append(mi.Layouts, li)
		}
		info.Masters = append(info.Masters, mi)
	}
	return info, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
