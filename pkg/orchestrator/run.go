package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-deckgen/internal/artifacts"
	"github.com/goliatone/go-deckgen/internal/config"
	"github.com/goliatone/go-deckgen/internal/metrics"
	"github.com/goliatone/go-deckgen/internal/runlog"
	"github.com/goliatone/go-deckgen/pkg/catalog"
	"github.com/goliatone/go-deckgen/pkg/deckir"
	"github.com/goliatone/go-deckgen/pkg/drift"
	"github.com/goliatone/go-deckgen/pkg/preflight"
	"github.com/goliatone/go-deckgen/pkg/render"
	"github.com/goliatone/go-deckgen/pkg/report"
)

// run carries the state of one render or smoke invocation.
type run struct {
	o       *Orchestrator
	result  *Result
	log     *runlog.Log
	metrics *metrics.Metrics
	catalog *catalog.Catalog
	stage   string

	driftChecked bool
}

func (o *Orchestrator) start(ctx context.Context, command, runID, deckPath string) (*run, error) {
	r := &run{
		o:       o,
		result:  &Result{Command: command, Status: StatusFailed},
		metrics: metrics.New(),
		stage:   "start",
	}
	if ctx == nil {
		return r, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return r, err
	}
	if err := o.cfg.Require(config.InputTemplate, config.InputCatalog, config.InputIcons); err != nil {
		return r, err
	}

	if runID == "" {
		runID = o.newRunID(o.now())
	}
	r.result.RunID = runID
	r.result.RunDir = o.cfg.RunDir(runID)
	if err := os.MkdirAll(r.result.RunDir, 0o755); err != nil {
		return r, fmt.Errorf("orchestrator: create run dir: %w", err)
	}

	log, err := runlog.Open(filepath.Join(r.result.RunDir, runlog.FileName))
	if err != nil {
		return r, err
	}
	r.log = log
	r.log.Record(runlog.RunStarted, runlog.Payload{
		"command":      command,
		"run_id":       runID,
		"deckir":       deckPath,
		"project_root": o.cfg.ProjectRoot,
		"template":     o.cfg.TemplatePath,
		"catalog":      o.cfg.LayoutCatalogPath,
	})
	o.logger.Info("run started", zap.String("command", command), zap.String("run_id", runID))
	return r, nil
}

// abandon reports a run that failed before its directory was usable.
func (r *run) abandon(err error) (*Result, error) {
	r.o.logger.Error("run not started", zap.String("command", r.result.Command), zap.Error(err))
	return r.result, err
}

func (r *run) timed(stage string, fn func() error) error {
	r.stage = stage
	began := time.Now()
	err := fn()
	r.metrics.ObserveStage(stage, time.Since(began))
	return err
}

func (r *run) addArtifact(name string) {
	r.result.Artifacts = append(r.result.Artifacts, name)
}

func (r *run) path(name string) string {
	return filepath.Join(r.result.RunDir, name)
}

func (r *run) checkDrift() error {
	return r.timed("drift", func() error {
		cat, pres, err := r.o.loadTemplate()
		if err != nil {
			return err
		}
		r.catalog = cat

		findings := drift.Validate(pres, cat)
		r.driftChecked = true
		r.result.DriftFindings = findings
		r.metrics.ObserveDrift(len(findings))
		r.log.Record(runlog.DriftChecked, runlog.Payload{
			"errors":   len(findings),
			"findings": nonNil(findings),
		})
		if len(findings) > 0 {
			return &render.DriftError{Findings: findings}
		}
		return nil
	})
}

func (r *run) loadDeck(path string) (deckir.DeckIR, error) {
	var deck deckir.DeckIR
	err := r.timed("load", func() error {
		var err error
		deck, err = deckir.Load(path)
		if err != nil {
			return err
		}
		if err := deckir.Write(r.path(DeckIRInputFile), deck); err != nil {
			return err
		}
		r.addArtifact(DeckIRInputFile)
		r.log.Record(runlog.DeckIRLoaded, runlog.Payload{
			"deck_id": deck.DeckID,
			"slides":  len(deck.Slides),
			"source":  path,
		})
		return nil
	})
	return deck, err
}

func (r *run) preflight(deck deckir.DeckIR) (deckir.DeckIR, error) {
	var remediated deckir.DeckIR
	err := r.timed("preflight", func() error {
		var rep preflight.Report
		remediated, rep = preflight.ValidateAndRemediate(deck, r.catalog)
		r.result.Validated = true
		r.result.Report = rep

		if err := writeJSON(r.path(ValidationReportFile), rep); err != nil {
			return err
		}
		r.addArtifact(ValidationReportFile)
		if err := deckir.Write(r.path(DeckIRRemediatedFile), remediated); err != nil {
			return err
		}
		r.addArtifact(DeckIRRemediatedFile)

		for _, v := range rep.Violations {
			r.metrics.IncrementViolation(string(v.Type), string(v.Severity))
		}
		changed := changedSlides(deck, remediated)
		r.metrics.ObserveRemediated(changed)

		byType := make(map[string]int)
		for typ, n := range rep.CountByType() {
			byType[string(typ)] = n
		}
		r.log.Record(runlog.PreflightCompleted, runlog.Payload{
			"violations":        len(rep.Violations),
			"blocking":          len(rep.Blocking()),
			"warn":              len(rep.Warnings()),
			"by_type":           byType,
			"remediated_slides": changed,
		})
		return nil
	})
	return remediated, err
}

// gate asks the confirm hook before rendering over blocking violations.
func (r *run) gate(ctx context.Context) error {
	if r.o.confirm == nil || len(r.result.Report.Blocking()) == 0 {
		return nil
	}
	r.stage = "confirm"
	ok, err := r.o.confirm(ctx, r.result.Report)
	if err != nil {
		return fmt.Errorf("orchestrator: confirm: %w", err)
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

func (r *run) renderDeck(ctx context.Context, deck deckir.DeckIR) error {
	return r.timed("render", func() error {
		renderer, err := r.o.newRenderer(r.catalog)
		if err != nil {
			return err
		}
		output := r.path(DeckFile)
		m, err := renderer.Render(ctx, deck, output)
		if err != nil {
			return err
		}
		r.result.RenderMap = m
		r.result.Output = output
		r.addArtifact(DeckFile)

		if err := writeJSON(r.path(RenderMapFile), m); err != nil {
			return err
		}
		r.addArtifact(RenderMapFile)

		bound := 0
		for _, entry := range m.Ordered() {
			bound += len(entry.FieldKeys)
		}
		r.metrics.ObserveRendered(m.Len(), bound)
		r.log.Record(runlog.RenderCompleted, runlog.Payload{
			"slides":       m.Len(),
			"bound_fields": bound,
			"output":       output,
		})
		return nil
	})
}

// finish writes metrics and the summary, publishes the run directory when
// a store is configured and closes the log. runErr is returned unchanged
// unless it is nil and a closing step fails.
func (r *run) finish(ctx context.Context, runErr error) (*Result, error) {
	defer r.log.Close()

	switch {
	case runErr == nil:
		r.result.Status = StatusOK
	case errors.Is(runErr, ErrAborted):
		r.result.Status = StatusAborted
	default:
		r.result.Status = StatusFailed
	}
	if runErr != nil {
		r.log.Record(runlog.RunFailed, runlog.Payload{
			"stage": r.stage,
			"error": runErr.Error(),
		})
	}

	err := runErr
	keep := func(stepErr error) {
		if err == nil && stepErr != nil {
			err = stepErr
		}
	}

	keep(r.metrics.WriteFile(r.path(metrics.FileName)))
	r.addArtifact(metrics.FileName)
	r.addArtifact(runlog.FileName)
	r.addArtifact(SummaryFile)

	summary, sumErr := r.o.reports.Run(r.summary(runErr))
	if sumErr != nil {
		keep(fmt.Errorf("orchestrator: summarise run: %w", sumErr))
	}
	r.result.Summary = summary
	if wErr := os.WriteFile(r.path(SummaryFile), []byte(summary), 0o644); wErr != nil {
		keep(fmt.Errorf("orchestrator: write summary: %w", wErr))
	}

	if r.o.store != nil {
		keep(r.publish(ctx))
	}

	fields := []zap.Field{
		zap.String("command", r.result.Command),
		zap.String("run_id", r.result.RunID),
		zap.String("status", r.result.Status),
		zap.String("run_dir", r.result.RunDir),
	}
	if err != nil {
		r.o.logger.Error("run finished", append(fields, zap.Error(err))...)
	} else {
		r.o.logger.Info("run finished", fields...)
	}
	return r.result, err
}

func (r *run) publish(ctx context.Context) error {
	objects, err := artifacts.Publish(ctx, r.o.store, r.o.publishPrefix, r.result.RunID, r.result.RunDir, r.result.Artifacts)
	r.result.Published = objects

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	payload := runlog.Payload{
		"driver": string(r.o.store.Driver()),
		"count":  len(objects),
		"keys":   keys,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	r.log.Record(runlog.ArtifactsPublished, payload)
	return err
}

func (r *run) summary(runErr error) report.Summary {
	s := report.Summary{
		RunID:         r.result.RunID,
		Command:       r.result.Command,
		Status:        r.result.Status,
		Artifacts:     r.result.Artifacts,
		DriftChecked:  r.driftChecked,
		DriftFindings: r.result.DriftFindings,
		Validated:     r.result.Validated,
		Report:        r.result.Report,
		Rendered:      r.result.RenderMap != nil,
		RenderMap:     r.result.RenderMap,
		Output:        r.result.Output,
	}
	if runErr != nil {
		s.Error = runErr.Error()
	}
	return s
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("orchestrator: encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("orchestrator: write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// changedSlides counts slides whose fields or notes differ after remediation.
func changedSlides(before, after deckir.DeckIR) int {
	changed := 0
	for i := range before.Slides {
		if i >= len(after.Slides) || slideChanged(before.Slides[i], after.Slides[i]) {
			changed++
		}
	}
	return changed
}

func slideChanged(a, b deckir.DeckSlide) bool {
	if !a.SpeakerNotes.Equal(b.SpeakerNotes) || len(a.Fields) != len(b.Fields) {
		return true
	}
	for key, value := range a.Fields {
		other, ok := b.Fields[key]
		if !ok || !value.Equal(other) {
			return true
		}
	}
	return false
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
