package catalog

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/goliatone/go-deckgen/pkg/pptx"
)

// DefaultTemplatePath is the project-relative template location recorded in
// generated catalogs.
const DefaultTemplatePath = "assets/template/template.pptx"

// knownLayouts maps template layout names to their stable catalog ids.
var knownLayouts = map[string]string{
	"Title with Image 2":             "title_image_light",
	"Section Break - Light 1":        "section_break_light",
	"Header Only - Light":            "header_only_light",
	"One Content - Light":            "one_content_light",
	"Two Content - Light":            "two_content_light",
	"Three content - Light":          "three_content_light",
	"Four content - Light":           "four_content_light",
	"One Content With Image - Light": "content_image_light",
	"Two Content with Image - Light": "two_content_image_light",
	"Statement - Light":              "statement_light",
	"Agenda - Light":                 "agenda_light",
	"BoilerPlate - Light":            "boilerplate_light",
}

// GenerateOptions tunes Generate.
type GenerateOptions struct {
	// AllLayouts includes layouts that are not in the known set.
	AllLayouts bool
	// TemplateName is recorded as generated_from.
	TemplateName string
}

// Generate derives a catalog from the annotated layouts of pres. Only
// placeholders that carry a field key are listed; constraints are estimated
// from placeholder geometry.
func Generate(pres *pptx.Presentation, opts GenerateOptions) (*Catalog, error) {
	seen := make(map[string]bool)
	var entries []Entry
	for _, master := range pres.Masters() {
		for _, layout := range master.Layouts {
			entry, err := describeLayout(layout)
			if err != nil {
				return nil, fmt.Errorf("catalog: layout %q: %w", layout.Name, err)
			}
			if !opts.AllLayouts && !entry.MVP {
				continue
			}
			if seen[entry.LayoutID] {
				continue
			}
			seen[entry.LayoutID] = true
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.MVP != b.MVP {
			return a.MVP
		}
		if a.MasterIndex != b.MasterIndex {
			return a.MasterIndex < b.MasterIndex
		}
		return a.LayoutIndex < b.LayoutIndex
	})

	name := opts.TemplateName
	if name == "" {
		name = filepath.Base(DefaultTemplatePath)
	}
	return &Catalog{
		Version:       "1.0",
		TemplatePath:  DefaultTemplatePath,
		GeneratedFrom: name,
		Layouts:       entries,
	}, nil
}

type measuredField struct {
	schema      FieldSchema
	hasGeometry bool
	left, top   float64
	width       float64
	height      float64
}

func describeLayout(layout *pptx.Layout) (Entry, error) {
	placeholders, err := layout.Placeholders()
	if err != nil {
		return Entry{}, err
	}

	var fields []measuredField
	keys := make(map[string]bool, len(placeholders))
	for _, ph := range placeholders {
		if ph.FieldKey == "" || !ph.Type.Cloneable() || ph.Type == pptx.TypeUnknown {
			continue
		}
		// A key repeated inside one layout is listed once.
		if keys[ph.FieldKey] {
			continue
		}
		keys[ph.FieldKey] = true
		typ := FieldType(ph.Type)
		idx := ph.Idx
		f := measuredField{
			schema: FieldSchema{
				FieldKey:       ph.FieldKey,
				Type:           typ,
				Required:       typ == FieldTitle || typ.IsBody(),
				PlaceholderIdx: &idx,
			},
			hasGeometry: ph.HasGeometry,
		}
		if ph.HasGeometry {
			x, y, w, h := ph.Geometry.Inches()
			f.left, f.top, f.width, f.height = round2(x), round2(y), round2(w), round2(h)
		}
		fields = append(fields, f)
	}
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].top != fields[j].top {
			return fields[i].top < fields[j].top
		}
		return fields[i].left < fields[j].left
	})

	entry := Entry{
		TemplateLayoutName: layout.Name,
		MasterIndex:        layout.MasterIndex,
		LayoutIndex:        layout.Index,
		Fields:             make([]FieldSchema, 0, len(fields)),
		Constraints:        estimateConstraints(fields, layout.Name),
	}
	for _, f := range fields {
		entry.Fields = append(entry.Fields, f.schema)
	}
	if id, ok := knownLayouts[layout.Name]; ok {
		entry.LayoutID, entry.MVP = id, true
	} else {
		entry.LayoutID = NormaliseLayoutID(layout.Name)
	}
	return entry, nil
}

// estimateConstraints turns placeholder sizes into budgets: roughly nine
// title characters and seven body characters per inch of width, two and a
// half lines per inch of height, tighter budgets as columns multiply.
func estimateConstraints(fields []measuredField, layoutName string) Constraints {
	c := Constraints{
		MaxTitleChars:     60,
		MaxBullets:        6,
		MaxWordsPerBullet: 15,
		MaxTotalBodyChars: 600,
		BodyLineBudget:    12,
		AvgCharsPerLine:   50,
	}

	var title *measuredField
	var bodies []measuredField
	for i := range fields {
		switch {
		case fields[i].schema.Type == FieldTitle:
			title = &fields[i]
		case fields[i].schema.Type.IsBody():
			bodies = append(bodies, fields[i])
		}
	}

	if title != nil && title.hasGeometry && title.width > 0 {
		c.MaxTitleChars = min(100, max(40, int(title.width*9)))
	}

	if len(bodies) > 0 {
		width, height := 6.0, 4.0
		if bodies[0].hasGeometry {
			width, height = bodies[0].width, bodies[0].height
		}
		c.AvgCharsPerLine = max(30, int(width*7))
		c.BodyLineBudget = max(4, int(height*2.5))

		switch n := len(bodies); {
		case n >= 3:
			c.MaxBullets, c.MaxWordsPerBullet, c.MaxTotalBodyChars = 4, 10, 300
		case n == 2:
			c.MaxBullets, c.MaxWordsPerBullet, c.MaxTotalBodyChars = 5, 12, 400
		default:
			c.MaxBullets, c.MaxWordsPerBullet, c.MaxTotalBodyChars = 7, 18, 700
		}
		c.MaxTotalBodyChars = min(c.MaxTotalBodyChars, c.BodyLineBudget*c.AvgCharsPerLine)
	}

	name := strings.ToLower(layoutName)
	switch {
	case strings.Contains(name, "statement"):
		c.MaxBullets, c.MaxWordsPerBullet, c.MaxTotalBodyChars, c.BodyLineBudget = 1, 30, 200, 4
	case strings.Contains(name, "agenda"):
		c.MaxBullets, c.MaxWordsPerBullet = 10, 8
	case strings.Contains(name, "boilerplate"):
		c.MaxBullets, c.MaxWordsPerBullet, c.MaxTotalBodyChars = 1, 100, 800
	case strings.Contains(name, "section"), strings.Contains(name, "header only"):
		c.MaxBullets, c.MaxTotalBodyChars = 0, 0
	}
	return c
}

var (
	nonWord    = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespace = regexp.MustCompile(`\s+`)
	underscore = regexp.MustCompile(`_+`)
)

// NormaliseLayoutID turns a layout name into a snake_case id.
func NormaliseLayoutID(name string) string {
	id := nonWord.ReplaceAllString(strings.ToLower(name), "")
	id = whitespace.ReplaceAllString(strings.TrimSpace(id), "_")
	return underscore.ReplaceAllString(id, "_")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
