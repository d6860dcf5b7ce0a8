package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-deckgen/internal/artifacts"
	"github.com/goliatone/go-deckgen/internal/config"
	"github.com/goliatone/go-deckgen/internal/runlog"
	"github.com/goliatone/go-deckgen/pkg/deckir"
	"github.com/goliatone/go-deckgen/pkg/orchestrator"
	"github.com/goliatone/go-deckgen/pkg/preflight"
	"github.com/goliatone/go-deckgen/pkg/render"
	"github.com/goliatone/go-deckgen/pkg/testsupport"
)

func loadConfig(t *testing.T, project testsupport.Project) *config.Config {
	t.Helper()
	for _, key := range []string{config.EnvProjectRoot, config.EnvPublishDriver, config.EnvS3Bucket, config.EnvS3PathStyle, config.EnvReportTemplates} {
		t.Setenv(key, "")
	}
	cfg, err := config.Load(project.Root)
	require.NoError(t, err)
	return cfg
}

func newOrchestrator(t *testing.T, cfg *config.Config, options ...orchestrator.Option) *orchestrator.Orchestrator {
	t.Helper()
	orch, err := orchestrator.New(cfg, options...)
	require.NoError(t, err)
	return orch
}

func eventTypes(t *testing.T, runDir string) []string {
	t.Helper()
	events, err := runlog.ReadEvents(filepath.Join(runDir, runlog.FileName))
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}
	return types
}

func overflowingDeck() string {
	bullets := make([]string, 10)
	for i := range bullets {
		bullets[i] = fmt.Sprintf("%q", fmt.Sprintf("B%d", i+1))
	}
	return `{
  "deck_id": "deck_overflow",
  "run_id": "run_overflow",
  "template_id": "template_default",
  "title": "Overflow",
  "global_constraints": {},
  "slides": [
    {
      "slide_id": "s1",
      "layout_id": "one_content_light",
      "fields": {"ph_title": "Too much", "ph_body": [` + strings.Join(bullets, ", ") + `]},
      "speaker_notes": "",
      "asset_refs": []
    }
  ]
}`
}

func TestValidate(t *testing.T) {
	project := testsupport.WriteProject(t)
	orch := newOrchestrator(t, loadConfig(t, project))

	res, err := orch.Validate(testsupport.Context())
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusOK, res.Status)
	assert.Empty(t, res.DriftFindings)
	assert.Contains(t, res.Summary, "Drift: catalog matches template")
}

func TestValidateReportsDrift(t *testing.T) {
	project := testsupport.WriteProject(t)
	drifted := strings.Replace(testsupport.DefaultCatalogJSON, `"layout_index": 1,`, `"layout_index": 99,`, 1)
	testsupport.MustWriteFile(t, project.CatalogPath, []byte(drifted))
	orch := newOrchestrator(t, loadConfig(t, project))

	res, err := orch.Validate(testsupport.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, orchestrator.ErrDrift)
	assert.Equal(t, orchestrator.StatusFailed, res.Status)
	require.Len(t, res.DriftFindings, 1)
	assert.Contains(t, res.DriftFindings[0], "one_content_light")
	assert.Contains(t, res.DriftFindings[0], "missing in template")
	assert.Contains(t, res.Summary, "Drift: 1 finding")
}

func TestValidateUsesProjectReportTemplates(t *testing.T) {
	project := testsupport.WriteProject(t)
	testsupport.MustWriteFile(t, filepath.Join(project.Root, config.FileName), []byte("paths:\n  report_templates: reports\n"))
	testsupport.MustWriteFile(t, filepath.Join(project.Root, "reports", "drift.tpl"),
		[]byte("{% autoescape off %}{{ project_root }} drift findings: {{ findings|length }}{% endautoescape %}"))
	orch := newOrchestrator(t, loadConfig(t, project))

	res, err := orch.Validate(testsupport.Context())
	require.NoError(t, err)
	assert.Equal(t, project.Root+" drift findings: 0", strings.TrimSpace(res.Summary))
}

func TestNewRejectsMissingReportTemplates(t *testing.T) {
	project := testsupport.WriteProject(t)
	testsupport.MustWriteFile(t, filepath.Join(project.Root, config.FileName), []byte("paths:\n  report_templates: no-such-dir\n"))

	_, err := orchestrator.New(loadConfig(t, project))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report engine")
}

func TestValidateMissingTemplate(t *testing.T) {
	project := testsupport.WriteProject(t)
	require.NoError(t, os.Remove(project.TemplatePath))
	orch := newOrchestrator(t, loadConfig(t, project))

	_, err := orch.Validate(testsupport.Context())
	assert.ErrorIs(t, err, config.ErrMissingFile)
}

func TestSmokeWritesRunArtifacts(t *testing.T) {
	project := testsupport.WriteProject(t)
	cfg := loadConfig(t, project)
	orch := newOrchestrator(t, cfg,
		orchestrator.WithClock(func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }),
		orchestrator.WithRunIDGenerator(func(at time.Time) string { return "smoke_" + at.Format("20060102") }),
	)

	res, err := orch.Smoke(testsupport.Context(), orchestrator.SmokeRequest{})
	require.NoError(t, err)

	assert.Equal(t, "smoke_20240501", res.RunID)
	assert.Equal(t, filepath.Join(project.Root, "runs", "smoke_20240501"), res.RunDir)
	assert.Equal(t, orchestrator.StatusOK, res.Status)
	assert.True(t, res.Validated)
	assert.True(t, res.Report.Empty())

	assert.Equal(t, []string{
		orchestrator.DeckIRInputFile,
		orchestrator.ValidationReportFile,
		orchestrator.DeckIRRemediatedFile,
		orchestrator.DeckFile,
		orchestrator.RenderMapFile,
		"metrics.prom",
		runlog.FileName,
		orchestrator.SummaryFile,
	}, res.Artifacts)
	for _, name := range res.Artifacts {
		assert.FileExists(t, filepath.Join(res.RunDir, name))
	}

	assert.Equal(t, []string{
		runlog.RunStarted,
		runlog.DriftChecked,
		runlog.DeckIRLoaded,
		runlog.PreflightCompleted,
		runlog.RenderCompleted,
	}, eventTypes(t, res.RunDir))

	var renderMap struct {
		Entries map[string]render.Entry `json:"entries"`
	}
	data, err := os.ReadFile(filepath.Join(res.RunDir, orchestrator.RenderMapFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &renderMap))
	require.Len(t, renderMap.Entries, 3)
	assert.Equal(t, []string{"ph_body", "ph_title"}, renderMap.Entries["s1"].FieldKeys)
	assert.Equal(t, 2, renderMap.Entries["s3"].SlideIndex)

	summary, err := os.ReadFile(filepath.Join(res.RunDir, orchestrator.SummaryFile))
	require.NoError(t, err)
	assert.Equal(t, res.Summary, string(summary))
	assert.Contains(t, res.Summary, "Run smoke_20240501 (smoke): ok")
	assert.Contains(t, res.Summary, "Preflight: no violations")
	assert.Contains(t, res.Summary, "Rendered 3 slides")

	metrics, err := os.ReadFile(filepath.Join(res.RunDir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "deckgen_rendered_slides_total 3")
}

func TestSmokeRemediatesOverflow(t *testing.T) {
	project := testsupport.WriteProject(t)
	deckPath := filepath.Join(project.Root, "inputs", "overflow.json")
	testsupport.MustWriteFile(t, deckPath, []byte(overflowingDeck()))
	orch := newOrchestrator(t, loadConfig(t, project))

	res, err := orch.Smoke(testsupport.Context(), orchestrator.SmokeRequest{DeckIRPath: deckPath, RunID: "overflow"})
	require.NoError(t, err)

	require.Len(t, res.Report.Violations, 1)
	v := res.Report.Violations[0]
	assert.Equal(t, preflight.TooManyBullets, v.Type)
	assert.Equal(t, preflight.SeverityBlocking, v.Severity)

	remediated, err := deckir.Load(filepath.Join(res.RunDir, orchestrator.DeckIRRemediatedFile))
	require.NoError(t, err)
	body := remediated.Slides[0].Fields["ph_body"]
	assert.Equal(t, []string{"B1", "B2", "B3", "B4", "B5", "B6", "B7"}, body.Items())
	assert.Contains(t, remediated.Slides[0].SpeakerNotes.Text(), "Overflow from ph_body: B8 | B9 | B10")

	original, err := deckir.Load(filepath.Join(res.RunDir, orchestrator.DeckIRInputFile))
	require.NoError(t, err)
	assert.Len(t, original.Slides[0].Fields["ph_body"].Items(), 10)

	metrics, err := os.ReadFile(filepath.Join(res.RunDir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `deckgen_preflight_violations_total{severity="BLOCKING",type="TOO_MANY_BULLETS"} 1`)
	assert.Contains(t, string(metrics), "deckgen_remediated_slides_total 1")
}

func TestSmokeConfirmGate(t *testing.T) {
	cases := map[string]struct {
		answer     bool
		wantErr    error
		wantStatus string
		wantDeck   bool
	}{
		"accepted": {answer: true, wantStatus: orchestrator.StatusOK, wantDeck: true},
		"declined": {answer: false, wantErr: orchestrator.ErrAborted, wantStatus: orchestrator.StatusAborted},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			project := testsupport.WriteProject(t)
			deckPath := filepath.Join(project.Root, "inputs", "overflow.json")
			testsupport.MustWriteFile(t, deckPath, []byte(overflowingDeck()))

			var asked int
			orch := newOrchestrator(t, loadConfig(t, project), orchestrator.WithConfirm(
				func(ctx context.Context, report preflight.Report) (bool, error) {
					asked++
					assert.Len(t, report.Blocking(), 1)
					return tc.answer, nil
				},
			))

			res, err := orch.Smoke(testsupport.Context(), orchestrator.SmokeRequest{DeckIRPath: deckPath, RunID: "gate"})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, 1, asked)
			assert.Equal(t, tc.wantStatus, res.Status)

			_, statErr := os.Stat(filepath.Join(res.RunDir, orchestrator.DeckFile))
			assert.Equal(t, tc.wantDeck, statErr == nil)
			if !tc.wantDeck {
				types := eventTypes(t, res.RunDir)
				assert.Equal(t, runlog.RunFailed, types[len(types)-1])
			}
		})
	}
}

func TestSmokeSkipsGateWithoutBlockingViolations(t *testing.T) {
	project := testsupport.WriteProject(t)
	orch := newOrchestrator(t, loadConfig(t, project), orchestrator.WithConfirm(
		func(context.Context, preflight.Report) (bool, error) {
			t.Fatalf("confirm should not be asked for a clean deck")
			return false, nil
		},
	))
	_, err := orch.Smoke(testsupport.Context(), orchestrator.SmokeRequest{RunID: "clean"})
	require.NoError(t, err)
}

func TestRenderUnknownLayoutFails(t *testing.T) {
	project := testsupport.WriteProject(t)
	deckPath := filepath.Join(project.Root, "inputs", "unknown.json")
	testsupport.MustWriteFile(t, deckPath, []byte(strings.Replace(testsupport.SampleDeckJSON,
		`"layout_id": "header_only_light"`, `"layout_id": "nonexistent_layout"`, 1)))
	orch := newOrchestrator(t, loadConfig(t, project))

	res, err := orch.Render(testsupport.Context(), orchestrator.RenderRequest{DeckIRPath: deckPath, RunID: "unknown"})
	require.Error(t, err)
	assert.ErrorIs(t, err, render.ErrUnknownLayout)

	var slideErr *render.SlideError
	require.True(t, errors.As(err, &slideErr))
	assert.Equal(t, "s3", slideErr.SlideID)

	assert.Equal(t, orchestrator.StatusFailed, res.Status)
	assert.NoFileExists(t, filepath.Join(res.RunDir, orchestrator.DeckFile))
	assert.NoFileExists(t, filepath.Join(res.RunDir, orchestrator.RenderMapFile))
	assert.Equal(t, []string{
		runlog.RunStarted,
		runlog.DriftChecked,
		runlog.DeckIRLoaded,
		runlog.RunFailed,
	}, eventTypes(t, res.RunDir))
	assert.Contains(t, res.Summary, "Error: ")
}

func TestRenderRefusesDrift(t *testing.T) {
	project := testsupport.WriteProject(t)
	drifted := strings.Replace(testsupport.DefaultCatalogJSON, `"template_layout_name": "One Content - Light"`, `"template_layout_name": "Renamed"`, 1)
	testsupport.MustWriteFile(t, project.CatalogPath, []byte(drifted))
	orch := newOrchestrator(t, loadConfig(t, project))

	res, err := orch.Render(testsupport.Context(), orchestrator.RenderRequest{DeckIRPath: project.DeckPath, RunID: "drift"})
	assert.ErrorIs(t, err, orchestrator.ErrDrift)
	assert.NotEmpty(t, res.DriftFindings)
	assert.NotContains(t, res.Artifacts, orchestrator.DeckIRInputFile)
	assert.Contains(t, res.Summary, "Drift: 1 finding")
}

func TestRenderRequiresInputs(t *testing.T) {
	project := testsupport.WriteProject(t)
	orch := newOrchestrator(t, loadConfig(t, project))

	_, err := orch.Render(testsupport.Context(), orchestrator.RenderRequest{})
	require.Error(t, err)

	require.NoError(t, os.Remove(project.IconsPath))
	res, err := orch.Render(testsupport.Context(), orchestrator.RenderRequest{DeckIRPath: project.DeckPath})
	assert.ErrorIs(t, err, config.ErrMissingFile)
	assert.Empty(t, res.RunDir)
}

func TestRenderPublishesArtifacts(t *testing.T) {
	project := testsupport.WriteProject(t)
	store, err := artifacts.NewFSStore(filepath.Join(project.Root, "published"))
	require.NoError(t, err)
	orch := newOrchestrator(t, loadConfig(t, project), orchestrator.WithStore(store, "decks"))

	res, err := orch.Render(testsupport.Context(), orchestrator.RenderRequest{DeckIRPath: project.DeckPath, RunID: "pub"})
	require.NoError(t, err)

	require.Len(t, res.Published, len(res.Artifacts))
	for _, name := range res.Artifacts {
		assert.FileExists(t, filepath.Join(store.Root(), "decks", "pub", name))
	}
	types := eventTypes(t, res.RunDir)
	assert.Equal(t, runlog.ArtifactsPublished, types[len(types)-1])
	assert.NotContains(t, res.Artifacts, orchestrator.ValidationReportFile)
}

func TestNewRunID(t *testing.T) {
	id := orchestrator.NewRunID(time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 7200)))
	assert.Regexp(t, regexp.MustCompile(`^20240102T010405Z_[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, orchestrator.NewRunID(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := orchestrator.New(nil)
	assert.Error(t, err)
}
