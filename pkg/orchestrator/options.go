package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-deckgen/internal/artifacts"
	"github.com/goliatone/go-deckgen/pkg/preflight"
	"github.com/goliatone/go-deckgen/pkg/report"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// ConfirmFunc decides whether smoke renders a deck that still carries
// blocking violations after remediation.
type ConfirmFunc func(ctx context.Context, report preflight.Report) (bool, error)

// WithLogger routes pipeline diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used for run ids.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRunIDGenerator overrides how run ids are minted when a request omits
// one.
func WithRunIDGenerator(fn func(time.Time) string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newRunID = fn
		}
	}
}

// WithConfirm installs the blocking-violation gate used by Smoke. Without
// it, smoke always renders.
func WithConfirm(fn ConfirmFunc) Option {
	return func(o *Orchestrator) {
		o.confirm = fn
	}
}

// WithStore publishes run artifacts to store under prefix after each
// render or smoke run.
func WithStore(store artifacts.Store, prefix string) Option {
	return func(o *Orchestrator) {
		o.store = store
		o.publishPrefix = prefix
	}
}

// WithReportEngine overrides the engine used for run summaries.
func WithReportEngine(engine *report.Engine) Option {
	return func(o *Orchestrator) {
		if engine != nil {
			o.reports = engine
		}
	}
}
