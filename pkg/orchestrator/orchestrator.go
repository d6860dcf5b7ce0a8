package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-deckgen/internal/artifacts"
	"github.com/goliatone/go-deckgen/internal/config"
	"github.com/goliatone/go-deckgen/pkg/catalog"
	"github.com/goliatone/go-deckgen/pkg/drift"
	"github.com/goliatone/go-deckgen/pkg/pptx"
	"github.com/goliatone/go-deckgen/pkg/preflight"
	"github.com/goliatone/go-deckgen/pkg/render"
	"github.com/goliatone/go-deckgen/pkg/report"
)

// Commands.
const (
	CommandValidate = "validate"
	CommandRender   = "render"
	CommandSmoke    = "smoke"
)

// Run statuses.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusAborted = "aborted"
)

// Artifact names inside a run directory.
const (
	DeckIRInputFile      = "deckir_v1.json"
	DeckIRRemediatedFile = "deckir_v1_1.json"
	ValidationReportFile = "validation_report.json"
	RenderMapFile        = "render_map.json"
	DeckFile             = "deck_v1.pptx"
	SummaryFile          = "summary.txt"
)

var (
	// ErrDrift marks runs stopped because the catalog no longer describes
	// the template.
	ErrDrift = render.ErrDrift
	// ErrAborted is returned by Smoke when the confirmation gate declines
	// to render a deck with blocking violations.
	ErrAborted = errors.New("orchestrator: render declined with blocking violations")
)

// Orchestrator runs pipeline commands against one project configuration.
type Orchestrator struct {
	cfg           *config.Config
	logger        *zap.Logger
	now           func() time.Time
	newRunID      func(time.Time) string
	confirm       ConfirmFunc
	store         artifacts.Store
	publishPrefix string
	reports       *report.Engine
}

// New constructs an Orchestrator applying any provided options.
func New(cfg *config.Config, options ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("orchestrator: config is required")
	}
	o := &Orchestrator{
		cfg:      cfg,
		logger:   zap.NewNop(),
		now:      time.Now,
		newRunID: NewRunID,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.reports == nil {
		engine, err := NewReportEngine(cfg)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: report engine: %w", err)
		}
		o.reports = engine
	}
	return o, nil
}

// NewReportEngine builds the summary engine for a project. Templates in the
// configured report templates directory replace the built-in ones, and
// project_root is visible to every template.
func NewReportEngine(cfg *config.Config) (*report.Engine, error) {
	if cfg == nil {
		return nil, errors.New("orchestrator: config is required")
	}
	return report.New(
		report.WithBaseDir(cfg.ReportTemplatesDir),
		report.WithGlobalData(map[string]any{"project_root": cfg.ProjectRoot}),
	)
}

// Result describes one command invocation.
type Result struct {
	Command string
	RunID   string
	RunDir  string
	Status  string

	DriftFindings []string

	Validated bool
	Report    preflight.Report

	RenderMap *render.RenderMap
	Output    string

	Artifacts []string
	Published []artifacts.Object

	// Summary is the human-readable account printed by the CLI.
	Summary string
}

// Validate runs the drift gate only. Findings are returned in the result
// and, when present, as a *render.DriftError wrapping ErrDrift.
func (o *Orchestrator) Validate(ctx context.Context) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{Command: CommandValidate, Status: StatusOK}
	if err := o.cfg.Require(config.InputTemplate, config.InputCatalog); err != nil {
		res.Status = StatusFailed
		return res, err
	}

	cat, pres, err := o.loadTemplate()
	if err != nil {
		res.Status = StatusFailed
		return res, err
	}
	res.DriftFindings = drift.Validate(pres, cat)

	summary, err := o.reports.Drift(res.DriftFindings)
	if err != nil {
		return res, fmt.Errorf("orchestrator: summarise drift: %w", err)
	}
	res.Summary = summary

	if len(res.DriftFindings) > 0 {
		res.Status = StatusFailed
		return res, &render.DriftError{Findings: res.DriftFindings}
	}
	return res, nil
}

// RenderRequest names the deck to render.
type RenderRequest struct {
	DeckIRPath string
	RunID      string
}

// Render checks drift and renders a caller-supplied DeckIR as delivered.
func (o *Orchestrator) Render(ctx context.Context, req RenderRequest) (*Result, error) {
	if req.DeckIRPath == "" {
		return nil, errors.New("orchestrator: deckir path is required")
	}
	r, err := o.start(ctx, CommandRender, req.RunID, req.DeckIRPath)
	if err != nil {
		return r.abandon(err)
	}
	return r.finish(ctx, r.render(ctx, req.DeckIRPath))
}

func (r *run) render(ctx context.Context, deckPath string) error {
	if err := r.checkDrift(); err != nil {
		return err
	}
	deck, err := r.loadDeck(deckPath)
	if err != nil {
		return err
	}
	return r.renderDeck(ctx, deck)
}

// SmokeRequest names the deck to push through the whole pipeline. An
// empty DeckIRPath uses the project's sample deck.
type SmokeRequest struct {
	DeckIRPath string
	RunID      string
}

// Smoke runs drift check, preflight remediation and render end to end.
func (o *Orchestrator) Smoke(ctx context.Context, req SmokeRequest) (*Result, error) {
	deckPath := req.DeckIRPath
	if deckPath == "" {
		deckPath = o.cfg.SampleDeckPath
	}
	r, err := o.start(ctx, CommandSmoke, req.RunID, deckPath)
	if err != nil {
		return r.abandon(err)
	}
	return r.finish(ctx, r.smoke(ctx, deckPath))
}

func (r *run) smoke(ctx context.Context, deckPath string) error {
	if err := r.checkDrift(); err != nil {
		return err
	}
	deck, err := r.loadDeck(deckPath)
	if err != nil {
		return err
	}
	remediated, err := r.preflight(deck)
	if err != nil {
		return err
	}
	if err := r.gate(ctx); err != nil {
		return err
	}
	return r.renderDeck(ctx, remediated)
}

func (o *Orchestrator) loadTemplate() (*catalog.Catalog, *pptx.Presentation, error) {
	cat, err := catalog.Load(o.cfg.LayoutCatalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("orchestrator: %w", err)
	}
	pres, err := pptx.Open(o.cfg.TemplatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("orchestrator: open template: %w", err)
	}
	return cat, pres, nil
}

func (o *Orchestrator) newRenderer(cat *catalog.Catalog) (*render.Renderer, error) {
	icons, err := render.LoadIconIndex(o.cfg.IconsPath)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	options := []render.Option{
		render.WithLogger(o.logger),
		render.WithAssets(render.NewAssetRegistry(o.cfg.ProjectRoot, icons)),
	}
	if o.cfg.SanitizeMarkup {
		options = append(options, render.WithSanitizer(render.NewMarkupStripper()))
	}
	return render.New(o.cfg.TemplatePath, cat, options...)
}
