package render

import (
	"encoding/json"
	"sort"
)

// Entry traces one deck slide to its position in the output document.
type Entry struct {
	SlideID    string   `json:"slide_id"`
	SlideIndex int      `json:"slide_index"`
	FieldKeys  []string `json:"field_keys"`
}

// RenderMap maps slide ids to their entries. It is built fresh by every
// render.
type RenderMap struct {
	Entries map[string]Entry `json:"entries"`
}

// NewRenderMap returns an empty map.
func NewRenderMap() *RenderMap {
	return &RenderMap{Entries: make(map[string]Entry)}
}

func (m *RenderMap) add(entry Entry) {
	if entry.FieldKeys == nil {
		entry.FieldKeys = []string{}
	}
	m.Entries[entry.SlideID] = entry
}

// Get returns the entry for slideID.
func (m *RenderMap) Get(slideID string) (Entry, bool) {
	entry, ok := m.Entries[slideID]
	return entry, ok
}

// Len is the number of rendered slides.
func (m *RenderMap) Len() int {
	return len(m.Entries)
}

// Ordered returns the entries in slide order.
func (m *RenderMap) Ordered() []Entry {
	out := make([]Entry, 0, len(m.Entries))
	for _, entry := range m.Entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlideIndex < out[j].SlideIndex })
	return out
}

func (m *RenderMap) MarshalJSON() ([]byte, error) {
	type plain RenderMap
	out := plain(*m)
	if out.Entries == nil {
		out.Entries = map[string]Entry{}
	}
	return json.Marshal(out)
}
