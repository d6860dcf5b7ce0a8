package drift

import (
	"fmt"

	"github.com/goliatone/go-deckgen/pkg/catalog"
	"github.com/goliatone/go-deckgen/pkg/pptx"
)

// Validate checks every catalog entry against the template: the layout
// coordinates must resolve, the layout name must match and every required
// field key must be present on the layout. It returns one message per
// finding, or nil when the catalog is a faithful description.
func Validate(pres *pptx.Presentation, cat *catalog.Catalog) []string {
	var errs []string
	seen := make(map[string]bool)

	for _, entry := range cat.Layouts {
		id := entry.LayoutID
		if id == "" {
			errs = append(errs, "Catalog entry missing layout_id")
			continue
		}
		if seen[id] {
			errs = append(errs, fmt.Sprintf("Duplicate layout_id in catalog: %s", id))
			continue
		}
		seen[id] = true

		masters := pres.Masters()
		if entry.MasterIndex < 0 || entry.MasterIndex >= len(masters) {
			errs = append(errs, fmt.Sprintf("Layout %s missing in template: master_index=%d", id, entry.MasterIndex))
			continue
		}
		layout, ok := pres.LayoutAt(entry.MasterIndex, entry.LayoutIndex)
		if !ok {
			errs = append(errs, fmt.Sprintf("Layout %s missing in template: master_index=%d, layout_index=%d",
				id, entry.MasterIndex, entry.LayoutIndex))
			continue
		}

		if entry.TemplateLayoutName != "" && layout.Name != entry.TemplateLayoutName {
			errs = append(errs, fmt.Sprintf("Layout %s name mismatch: catalog='%s' template='%s'",
				id, entry.TemplateLayoutName, layout.Name))
		}

		keys, err := layout.FieldKeys()
		if err != nil {
			errs = append(errs, fmt.Sprintf("Layout %s unreadable in template: %v", id, err))
			continue
		}
		present := make(map[string]bool, len(keys))
		for _, key := range keys {
			present[key] = true
		}
		for _, field := range entry.Fields {
			if field.Required && field.FieldKey != "" && !present[field.FieldKey] {
				errs = append(errs, fmt.Sprintf("Layout %s missing required field_key: %s", id, field.FieldKey))
			}
		}
	}
	return errs
}
