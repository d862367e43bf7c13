// Package engine orchestrates strategy evaluation end to end: parse the
// symphony source, walk it with the evaluator, and finalize the result into
// a normalized allocation plus a completed trace.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/maestro/internal/dsl"
	"github.com/aristath/maestro/internal/events"
	"github.com/aristath/maestro/internal/indicators"
	"github.com/aristath/maestro/internal/marketdata"
	"github.com/aristath/maestro/internal/portfolio"
	"github.com/aristath/maestro/internal/trace"
)

// Config holds engine construction parameters.
type Config struct {
	Provider     marketdata.BarProvider
	Bus          *events.Bus // optional; nil means direct call mode
	LookbackDays int
	Log          zerolog.Logger
}

// Engine evaluates symphony sources into allocations. The operator registry
// is built once and shared read-only across concurrent evaluations; every
// evaluation gets its own trace and its own indicator cache.
type Engine struct {
	registry *dsl.Registry
	provider marketdata.BarProvider
	bus      *events.Bus
	lookback int
	log      zerolog.Logger
}

// New creates an engine.
func New(cfg Config) *Engine {
	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = 365
	}
	return &Engine{
		registry: dsl.NewRegistry(),
		provider: cfg.Provider,
		bus:      cfg.Bus,
		lookback: lookback,
		log:      cfg.Log.With().Str("component", "engine").Logger(),
	}
}

// EvaluateText evaluates one symphony source. Any parse or evaluation
// failure is recorded into the returned trace (completed unsuccessful) and
// wrapped in *Error; the trace is returned even on failure.
func (e *Engine) EvaluateText(ctx context.Context, strategyID, source, correlationID string) (*portfolio.StrategyAllocation, *trace.Trace, error) {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	tr := trace.New(strategyID, correlationID)
	log := e.log.With().Str("strategy", strategyID).Str("correlation_id", correlationID).Logger()

	root, err := dsl.Parse(source)
	if err != nil {
		return nil, tr, e.fail(tr, strategyID, "", correlationID, err)
	}

	gateway := indicators.NewGateway(e.provider, e.lookback, log)
	evaluator := dsl.NewEvaluator(ctx, e.registry, gateway, tr, log)

	result, err := evaluator.Eval(root)
	if err != nil {
		return nil, tr, e.fail(tr, strategyID, "", correlationID, err)
	}

	alloc := dsl.BuildAllocation(result, strategyID, correlationID, time.Now().UTC())
	if err := tr.Complete(true, ""); err != nil {
		log.Warn().Err(err).Msg("Failed to complete trace")
	}

	log.Info().Int("symbols", len(alloc.Symbols())).Bool("cash_only", alloc.IsCashOnly()).
		Msg("Strategy evaluated")
	e.publishSuccess(alloc, tr)
	return alloc, tr, nil
}

// EvaluateFile reads and evaluates one symphony file. The strategy id is
// the file name without extension.
func (e *Engine) EvaluateFile(ctx context.Context, path, correlationID string) (*portfolio.StrategyAllocation, *trace.Trace, error) {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	strategyID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	source, err := os.ReadFile(path)
	if err != nil {
		tr := trace.New(strategyID, correlationID)
		wrapped := e.fail(tr, strategyID, path, correlationID, fmt.Errorf("failed to read strategy file: %w", err))
		return nil, tr, wrapped
	}

	alloc, tr, err := e.EvaluateText(ctx, strategyID, string(source), correlationID)
	if err != nil {
		if engErr, ok := err.(*Error); ok {
			engErr.Path = path
		}
		return nil, tr, err
	}
	return alloc, tr, nil
}

// fail completes the trace as unsuccessful and wraps the cause.
func (e *Engine) fail(tr *trace.Trace, strategyID, path, correlationID string, cause error) error {
	if err := tr.Complete(false, cause.Error()); err != nil {
		e.log.Warn().Err(err).Str("strategy", strategyID).Msg("Failed to complete trace")
	}

	wrapped := &Error{
		StrategyID:    strategyID,
		Path:          path,
		CorrelationID: correlationID,
		Err:           cause,
	}
	if e.bus != nil {
		e.bus.Publish(events.EvaluationFailed, &events.EvaluationFailedData{
			StrategyID:    strategyID,
			CorrelationID: correlationID,
			ErrorKind:     wrapped.Kind(),
			ErrorMessage:  cause.Error(),
		})
	}
	return wrapped
}

func (e *Engine) publishSuccess(alloc *portfolio.StrategyAllocation, tr *trace.Trace) {
	if e.bus == nil {
		return
	}

	weights := make(map[string]string)
	for symbol, w := range alloc.TargetWeights() {
		weights[symbol] = w.String()
	}
	e.bus.Publish(events.StrategyEvaluated, &events.StrategyEvaluatedData{
		StrategyID:    alloc.StrategyID,
		CorrelationID: alloc.CorrelationID,
		TraceID:       tr.ID,
		Success:       true,
		Steps:         len(tr.Entries()),
	})
	e.bus.Publish(events.AllocationProduced, &events.AllocationProducedData{
		StrategyID:    alloc.StrategyID,
		CorrelationID: alloc.CorrelationID,
		AsOf:          alloc.AsOf.Format(time.RFC3339),
		TargetWeights: weights,
	})
}
