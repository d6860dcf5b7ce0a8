package report

import (
	"io"

	"github.com/goliatone/go-deckgen/pkg/pptx"
	"github.com/goliatone/go-deckgen/pkg/preflight"
	"github.com/goliatone/go-deckgen/pkg/render"
)

// Summary is the data behind a run summary. Sections render only when
// their step ran.
type Summary struct {
	RunID     string
	Command   string
	Status    string
	Error     string
	Artifacts []string

	DriftChecked  bool
	DriftFindings []string

	Validated bool
	Report    preflight.Report

	Rendered  bool
	RenderMap *render.RenderMap
	Output    string
}

// Drift summarises drift findings.
func (e *Engine) Drift(findings []string, out ...io.Writer) (string, error) {
	return e.RenderTemplate("drift", driftData(findings), out...)
}

// Validation summarises a preflight report.
func (e *Engine) Validation(report preflight.Report, out ...io.Writer) (string, error) {
	return e.RenderTemplate("validation", validationData(report), out...)
}

// RenderMap summarises where each slide landed.
func (e *Engine) RenderMap(m *render.RenderMap, output string, out ...io.Writer) (string, error) {
	return e.RenderTemplate("rendermap", renderMapData(m, output), out...)
}

// Template lists the masters, layouts and placeholders of a template.
func (e *Engine) Template(info pptx.TemplateInfo, out ...io.Writer) (string, error) {
	return e.RenderTemplate("inspect", map[string]any{
		"masters": info.Masters,
		"slides":  info.Slides,
	}, out...)
}

// Run summarises a whole pipeline run.
func (e *Engine) Run(s Summary, out ...io.Writer) (string, error) {
	data := map[string]any{
		"run_id":        s.RunID,
		"command":       s.Command,
		"status":        s.Status,
		"error":         s.Error,
		"artifacts":     s.Artifacts,
		"drift_checked": s.DriftChecked,
		"validated":     s.Validated,
		"rendered":      s.Rendered && s.RenderMap != nil,
	}
	for key, value := range driftData(s.DriftFindings) {
		data[key] = value
	}
	for key, value := range validationData(s.Report) {
		data[key] = value
	}
	if s.RenderMap != nil {
		for key, value := range renderMapData(s.RenderMap, s.Output) {
			data[key] = value
		}
	}
	return e.RenderTemplate("summary", data, out...)
}

func driftData(findings []string) map[string]any {
	return map[string]any{"findings": findings}
}

func validationData(report preflight.Report) map[string]any {
	return map[string]any{
		"violations": report.Violations,
		"blocking":   len(report.Blocking()),
		"warnings":   len(report.Warnings()),
	}
}

func renderMapData(m *render.RenderMap, output string) map[string]any {
	var entries []render.Entry
	if m != nil {
		entries = m.Ordered()
	}
	return map[string]any{"entries": entries, "output": output}
}
