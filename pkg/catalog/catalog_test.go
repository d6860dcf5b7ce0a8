package catalog_test

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-deckgen/pkg/catalog"
	"github.com/goliatone/go-deckgen/pkg/pptx"
	"github.com/goliatone/go-deckgen/pkg/testsupport"
)

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(testsupport.DefaultCatalogJSON), "default")
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	return cat
}

func TestParseJSONAndLookup(t *testing.T) {
	cat := defaultCatalog(t)

	entry, ok := cat.Lookup("one_content_light")
	if !ok {
		t.Fatalf("expected one_content_light")
	}
	want := catalog.Constraints{
		MaxTitleChars:     100,
		MaxBullets:        7,
		MaxWordsPerBullet: 18,
		MaxTotalBodyChars: 700,
		BodyLineBudget:    13,
		AvgCharsPerLine:   85,
	}
	if diff := cmp.Diff(want, entry.Constraints); diff != "" {
		t.Fatalf("constraints mismatch (-want +got):\n%s", diff)
	}
	if field, ok := entry.Field("ph_body"); !ok || !field.Type.IsBody() || !field.Required {
		t.Fatalf("unexpected ph_body schema %+v", field)
	}

	if _, err := cat.Resolve("nonexistent_layout"); !errors.Is(err, catalog.ErrUnknownLayout) {
		t.Fatalf("expected ErrUnknownLayout, got %v", err)
	}
	if _, ok := cat.Lookup(""); ok {
		t.Fatalf("empty id must not resolve")
	}
}

func TestParseYAML(t *testing.T) {
	doc := `
version: "1.0"
layouts:
  - layout_id: header_only_light
    template_layout_name: Header Only - Light
    master_index: 0
    layout_index: 3
    fields:
      - field_key: ph_title
        type: title
        required: true
        placeholder_idx: 0
    constraints:
      max_title_chars: 80
`
	cat, err := catalog.Parse([]byte(doc), "catalog.yaml")
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	entry, ok := cat.Lookup("header_only_light")
	if !ok {
		t.Fatalf("expected header_only_light")
	}
	if entry.Constraints.MaxTitleChars != 80 || entry.Constraints.MaxBullets != 0 {
		t.Fatalf("unexpected constraints %+v", entry.Constraints)
	}
	if key, ok := entry.FieldKeyForIdx(0); !ok || key != "ph_title" {
		t.Fatalf("expected idx 0 to map to ph_title, got %q", key)
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":        "   ",
		"garbage":      "{not: [valid",
		"negative":     `{"layouts":[{"layout_id":"x","constraints":{"max_bullets":-1}}]}`,
		"unknown type": `{"layouts":[{"layout_id":"x","fields":[{"field_key":"k","type":"chart"}]}]}`,
		"empty key":    `{"layouts":[{"layout_id":"x","fields":[{"field_key":" ","type":"body"}]}]}`,
		"repeated key": `{"layouts":[{"layout_id":"x","fields":[{"field_key":"ph_body","type":"body"},{"field_key":"ph_body","type":"content"}]}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := catalog.Parse([]byte(doc), name); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseNamesRepeatedFieldKey(t *testing.T) {
	doc := `{"layouts":[{"layout_id":"x","fields":[
	  {"field_key":"ph_title","type":"title"},
	  {"field_key":"ph_body","type":"body"},
	  {"field_key":"ph_body","type":"body"}]}]}`
	_, err := catalog.Parse([]byte(doc), "dupe-keys")
	if err == nil || !strings.Contains(err.Error(), `duplicate field_key "ph_body"`) {
		t.Fatalf("expected duplicate field_key error, got %v", err)
	}
}

func TestParseKeepsTypeMismatchCause(t *testing.T) {
	doc := `{"layouts":[{"layout_id":"x","constraints":{"max_bullets":"7"}}]}`
	_, err := catalog.Parse([]byte(doc), "typed")
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected wrapped *json.UnmarshalTypeError, got %v", err)
	}
	if !strings.Contains(err.Error(), "max_bullets") {
		t.Fatalf("expected the field name in %q", err)
	}
}

func TestParseKeepsDuplicatesForDrift(t *testing.T) {
	doc := `{"layouts":[{"layout_id":"a"},{"layout_id":"a"},{"layout_id":""}]}`
	cat, err := catalog.Parse([]byte(doc), "dupes")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "a", ""}, cat.LayoutIDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cat := defaultCatalog(t)
	dir := t.TempDir()
	for _, name := range []string{"catalog.json", "catalog.yaml"} {
		path := filepath.Join(dir, name)
		if err := cat.Save(path); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		loaded, err := catalog.Load(path)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if diff := cmp.Diff(cat, loaded); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestGenerateMatchesDefaultCatalog(t *testing.T) {
	pres, err := pptx.OpenBytes(testsupport.DefaultTemplate())
	if err != nil {
		t.Fatalf("open template: %v", err)
	}
	got, err := catalog.Generate(pres, catalog.GenerateOptions{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if diff := cmp.Diff(defaultCatalog(t), got); diff != "" {
		t.Fatalf("generated catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateAllLayouts(t *testing.T) {
	pres, err := pptx.OpenBytes(testsupport.DefaultTemplate())
	if err != nil {
		t.Fatalf("open template: %v", err)
	}
	got, err := catalog.Generate(pres, catalog.GenerateOptions{AllLayouts: true, TemplateName: "deck.pptx"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	ids := got.LayoutIDs()
	want := []string{
		"one_content_light", "two_content_light", "header_only_light",
		"content_image_light", "three_content_light", "statement_light",
		"title_slide", "blank",
	}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("layout ids mismatch (-want +got):\n%s", diff)
	}
	title, _ := got.Lookup("title_slide")
	if title.MVP {
		t.Fatalf("title_slide is not a known layout")
	}
	if len(title.Fields) != 2 || title.Fields[1].FieldKey != "ph_subtitle" || title.Fields[1].Required {
		t.Fatalf("unexpected title slide fields %+v", title.Fields)
	}
	if got.GeneratedFrom != "deck.pptx" {
		t.Fatalf("unexpected generated_from %q", got.GeneratedFrom)
	}
}

func TestNormaliseLayoutID(t *testing.T) {
	cases := map[string]string{
		"Title Slide":             "title_slide",
		"  Two  Content (Dark) ":  "two_content_dark",
		"Section Break - Light 1": "section_break_light_1",
	}
	for in, want := range cases {
		if got := catalog.NormaliseLayoutID(in); got != want {
			t.Fatalf("NormaliseLayoutID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAnnotateRestoresDefaultKeys(t *testing.T) {
	stripped := testsupport.BuildTemplate(testsupport.TemplateSpec{
		Layouts: testsupport.StripFieldKeys(testsupport.DefaultLayouts()),
	})
	pres, err := pptx.OpenBytes(stripped)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	dry, err := catalog.Annotate(pres, catalog.AnnotateOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if len(dry) == 0 {
		t.Fatalf("expected assignments")
	}
	layout, _ := pres.LayoutAt(0, 1)
	if keys, _ := layout.FieldKeys(); len(keys) != 0 {
		t.Fatalf("dry run must not write keys, found %v", keys)
	}

	if _, err := catalog.Annotate(pres, catalog.AnnotateOptions{}); err != nil {
		t.Fatalf("annotate: %v", err)
	}
	for i, want := range testsupport.DefaultLayouts() {
		layout, _ := pres.LayoutAt(0, i)
		got, _ := layout.FieldKeys()
		var keys []string
		for _, ph := range want.Placeholders {
			keys = append(keys, ph.FieldKey)
		}
		if diff := cmp.Diff(sortedUnique(keys), got); diff != "" {
			t.Fatalf("layout %q keys mismatch (-want +got):\n%s", want.Name, diff)
		}
	}

	again, err := catalog.Annotate(pres, catalog.AnnotateOptions{})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	for _, a := range again {
		if !a.Kept {
			t.Fatalf("expected existing key to be kept for %s", a.ShapeName)
		}
	}
}

func TestAnnotateMVPOnly(t *testing.T) {
	pres, err := pptx.OpenBytes(testsupport.BuildTemplate(testsupport.TemplateSpec{
		Layouts: testsupport.StripFieldKeys(testsupport.DefaultLayouts()),
	}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	assignments, err := catalog.Annotate(pres, catalog.AnnotateOptions{MVPOnly: true, DryRun: true})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	for _, a := range assignments {
		if strings.EqualFold(a.LayoutName, "Title Slide") || a.LayoutName == "Blank" {
			t.Fatalf("unexpected layout %q in MVP-only run", a.LayoutName)
		}
	}
}

func TestFieldKeyFor(t *testing.T) {
	cases := []struct {
		typ      pptx.PlaceholderType
		pos, tot int
		want     string
	}{
		{pptx.TypeTitle, 0, 1, "ph_title"},
		{pptx.TypeContent, 0, 1, "ph_body"},
		{pptx.TypeBody, 1, 2, "ph_body_right"},
		{pptx.TypeContent, 2, 4, "ph_col3"},
		{pptx.TypeImage, 1, 3, "ph_image_center"},
		{pptx.TypeImage, 4, 6, "ph_image_5"},
		{pptx.TypeSubtitle, 1, 2, "ph_subtitle_2"},
	}
	for _, tc := range cases {
		if got := catalog.FieldKeyFor(tc.typ, tc.pos, tc.tot); got != tc.want {
			t.Fatalf("FieldKeyFor(%s, %d, %d) = %q, want %q", tc.typ, tc.pos, tc.tot, got, tc.want)
		}
	}
}

func sortedUnique(keys []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
