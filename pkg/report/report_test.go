package report_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-deckgen/pkg/pptx"
	"github.com/goliatone/go-deckgen/pkg/preflight"
	"github.com/goliatone/go-deckgen/pkg/render"
	"github.com/goliatone/go-deckgen/pkg/report"
	"github.com/goliatone/go-deckgen/pkg/testsupport"
)

func newEngine(t *testing.T, options ...report.Option) *report.Engine {
	t.Helper()
	engine, err := report.New(options...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func assertContains(t *testing.T, got string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func key(s string) *string { return &s }

func TestDriftSummary(t *testing.T) {
	engine := newEngine(t)

	clean, err := engine.Drift(nil)
	if err != nil {
		t.Fatalf("render clean: %v", err)
	}
	if strings.TrimSpace(clean) != "Drift: catalog matches template" {
		t.Fatalf("clean summary = %q", clean)
	}

	got, written := testsupport.CaptureOutput(t, func(w io.Writer) (string, error) {
		return engine.Drift([]string{
			"Layout x name mismatch: catalog='A' template='B'",
			"Duplicate layout_id in catalog: y",
		}, w)
	})
	if got != written {
		t.Fatalf("writer output differs from result")
	}
	assertContains(t, got,
		"Drift: 2 findings",
		"  - Layout x name mismatch: catalog='A' template='B'",
		"  - Duplicate layout_id in catalog: y",
	)
}

func TestValidationSummary(t *testing.T) {
	engine := newEngine(t)
	rep := preflight.Report{Violations: []preflight.Violation{
		{SlideID: "s1", LayoutID: "one", FieldKey: key("ph_body"), Type: preflight.TooManyBullets, Severity: preflight.SeverityBlocking, RecommendedAction: "Reduce 10 bullets to 7"},
		{SlideID: "s2", LayoutID: "missing", Type: preflight.BodyTooDense, Severity: preflight.SeverityBlocking, RecommendedAction: "Unknown layout_id"},
		{SlideID: "s3", LayoutID: "one", FieldKey: key("ph_title"), Type: preflight.TitleTooLong, Severity: preflight.SeverityWarn, RecommendedAction: "Shorten"},
	}}

	got, err := engine.Validation(rep)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, got,
		"Preflight: 3 violations (2 blocking, 1 warn)",
		"  - [BLOCKING] s1/ph_body TOO_MANY_BULLETS: Reduce 10 bullets to 7",
		"  - [BLOCKING] s2 BODY_TOO_DENSE: Unknown layout_id",
		"  - [WARN] s3/ph_title TITLE_TOO_LONG: Shorten",
	)

	empty, err := engine.Validation(preflight.Report{})
	if err != nil {
		t.Fatalf("render empty: %v", err)
	}
	assertContains(t, empty, "Preflight: no violations")
}

func renderMap(t *testing.T) *render.RenderMap {
	t.Helper()
	m := render.NewRenderMap()
	m.Entries["s1"] = render.Entry{SlideID: "s1", SlideIndex: 0, FieldKeys: []string{"ph_body", "ph_title"}}
	m.Entries["s2"] = render.Entry{SlideID: "s2", SlideIndex: 1, FieldKeys: []string{"ph_title"}}
	return m
}

func TestRenderMapSummary(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.RenderMap(renderMap(t), "runs/x/deck_v1.pptx")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, got,
		"Rendered 2 slides to runs/x/deck_v1.pptx",
		"  0: s1 [ph_body, ph_title]",
		"  1: s2 [ph_title]",
	)
	if strings.Index(got, "s1 [") > strings.Index(got, "s2 [") {
		t.Fatalf("entries out of order:\n%s", got)
	}
}

func TestTemplateSummary(t *testing.T) {
	pres, err := pptx.OpenBytes(testsupport.DefaultTemplate())
	if err != nil {
		t.Fatalf("open template: %v", err)
	}
	info, err := pres.Inspect()
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}

	got, err := newEngine(t).Template(info)
	if err != nil {
		t.Fatalf("template summary: %v", err)
	}
	assertContains(t, got,
		"Template: 1 master,",
		"Master 0\n",
		"  Layout 1: One Content - Light\n",
		"type=title key=ph_title at (",
	)
	if strings.Contains(got, "000000") {
		t.Fatalf("numbers should be formatted:\n%s", got)
	}
}

func TestRunSummary(t *testing.T) {
	engine := newEngine(t)

	got, err := engine.Run(report.Summary{
		RunID:        "20260101T000000Z_abcd1234",
		Command:      "smoke",
		Status:       "ok",
		Artifacts:    []string{"deck_v1.pptx", "render_map.json"},
		DriftChecked: true,
		Validated:    true,
		Rendered:     true,
		RenderMap:    renderMap(t),
		Output:       "deck_v1.pptx",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, got,
		"Run 20260101T000000Z_abcd1234 (smoke): ok",
		"Drift: catalog matches template",
		"Preflight: no violations",
		"Rendered 2 slides to deck_v1.pptx",
		"Artifacts:",
		"  - render_map.json",
	)

	failed, err := engine.Run(report.Summary{RunID: "r", Command: "render", Status: "failed", Error: "render: unknown layout_id", DriftChecked: true})
	if err != nil {
		t.Fatalf("render failed summary: %v", err)
	}
	assertContains(t, failed, "Error: render: unknown layout_id")
	if strings.Contains(failed, "Preflight:") || strings.Contains(failed, "Rendered") {
		t.Fatalf("sections that did not run were rendered:\n%s", failed)
	}
}

func TestBaseDirOverridesTemplates(t *testing.T) {
	dir := t.TempDir()
	override := "{% autoescape off %}Drift in {{ project_root }}: {{ findings|length }}{% endautoescape %}"
	if err := os.WriteFile(filepath.Join(dir, "drift.tpl"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	engine := newEngine(t,
		report.WithBaseDir(dir),
		report.WithGlobalData(map[string]any{"project_root": "/decks"}),
	)

	got, err := engine.Drift([]string{"a", "b"})
	if err != nil {
		t.Fatalf("render override: %v", err)
	}
	if strings.TrimSpace(got) != "Drift in /decks: 2" {
		t.Fatalf("override output = %q", got)
	}

	// Templates missing from the dir fall back to the embedded set, and
	// includes pick up the override.
	run, err := engine.Run(report.Summary{RunID: "r1", Command: "validate", Status: "failed", DriftChecked: true, DriftFindings: []string{"x"}})
	if err != nil {
		t.Fatalf("render run: %v", err)
	}
	assertContains(t, run,
		"Run r1 (validate): failed",
		"Project: /decks",
		"Drift in /decks: 1",
	)
}

func TestBaseDirMustExist(t *testing.T) {
	if _, err := report.New(report.WithBaseDir(filepath.Join(t.TempDir(), "missing"))); err == nil {
		t.Fatalf("expected error for a missing template dir")
	}
}
