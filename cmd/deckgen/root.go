package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-deckgen/internal/artifacts"
	"github.com/goliatone/go-deckgen/internal/config"
	"github.com/goliatone/go-deckgen/internal/prompt"
	"github.com/goliatone/go-deckgen/pkg/orchestrator"
	"github.com/goliatone/go-deckgen/pkg/preflight"
)

// app holds the state shared by every command.
type app struct {
	stdout io.Writer
	stderr io.Writer

	projectRoot string
	verbose     bool

	logger *zap.Logger
	prompt prompt.Driver
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "deckgen",
		Short: "Render slide decks that fit their template layouts",
		Long: `deckgen binds structured slide content (DeckIR) to the layouts of a
presentation template. The layout catalog describes every layout's field
keys and capacity; decks are checked against it, remediated and rendered.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.projectRoot, "project-root", "", "path to project root (default: auto-detect)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newValidateCmd(a),
		newRenderCmd(a),
		newSmokeCmd(a),
		newInspectCmd(a),
		newCatalogCmd(a),
		newAnnotateCmd(a),
	)
	return root
}

func (a *app) initLogger() error {
	if a.logger != nil {
		return nil
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if a.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.projectRoot)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("configuration loaded",
		zap.String("project_root", cfg.ProjectRoot),
		zap.String("template", cfg.TemplatePath),
		zap.String("catalog", cfg.LayoutCatalogPath),
	)
	return cfg, nil
}

// orchestrator builds the pipeline for cfg, wiring publishing when the
// project configures a store.
func (a *app) orchestrator(ctx context.Context, cfg *config.Config, options ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	options = append([]orchestrator.Option{orchestrator.WithLogger(a.logger)}, options...)
	if store := cfg.Artifacts(); store.Enabled() {
		s, err := artifacts.Open(ctx, store)
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithStore(s, store.Prefix))
	}
	return orchestrator.New(cfg, options...)
}

func (a *app) promptDriver() prompt.Driver {
	if a.prompt == nil {
		a.prompt = prompt.NewSurveyDriver(nil)
	}
	return a.prompt
}

// confirmBlocking asks before rendering a deck that still has blocking
// violations.
func (a *app) confirmBlocking(ctx context.Context, report preflight.Report) (bool, error) {
	driver := a.promptDriver()
	blocking := report.Blocking()
	if err := driver.Info(ctx, fmt.Sprintf("%d blocking violation(s) remain after remediation on slides %v", len(blocking), report.SlideIDs())); err != nil {
		return false, err
	}
	return driver.Confirm(ctx, prompt.ConfirmConfig{
		Message: "Render anyway?",
		Help:    "Blocking violations mark content that was rewritten or could not be fixed automatically.",
		Default: false,
	})
}
