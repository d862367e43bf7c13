package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/maestro/internal/portfolio"
	"github.com/aristath/maestro/internal/trace"
)

// FileResult is the outcome of one strategy file evaluation within a batch.
type FileResult struct {
	Path       string
	Allocation *portfolio.StrategyAllocation
	Trace      *trace.Trace
	Err        error
}

// Runner evaluates multiple strategy files concurrently and combines their
// allocations. The merge is always performed in the declared file order,
// never completion order, so combined output is reproducible regardless of
// scheduling.
type Runner struct {
	engine  *Engine
	workers int
	log     zerolog.Logger
}

// NewRunner creates a runner with a bounded worker count.
func NewRunner(engine *Engine, workers int, log zerolog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		engine:  engine,
		workers: workers,
		log:     log.With().Str("component", "runner").Logger(),
	}
}

// EvaluateAll evaluates every path and returns per-file results in the
// declared order plus one combined equal-weight allocation over the
// successful files. Failed files are reported in their result entry and
// excluded from the combination.
func (r *Runner) EvaluateAll(ctx context.Context, paths []string) (*portfolio.StrategyAllocation, []FileResult) {
	results := make([]FileResult, len(paths))

	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			alloc, tr, err := r.engine.EvaluateFile(ctx, path, uuid.NewString())
			results[i] = FileResult{Path: path, Allocation: alloc, Trace: tr, Err: err}
		}(i, path)
	}
	wg.Wait()

	return r.combine(results), results
}

// combine merges successful allocations in declared order, each contributing
// an equal share of the combined portfolio.
func (r *Runner) combine(results []FileResult) *portfolio.StrategyAllocation {
	var successful []*portfolio.StrategyAllocation
	for _, res := range results {
		if res.Err == nil && res.Allocation != nil {
			successful = append(successful, res.Allocation)
		} else if res.Err != nil {
			r.log.Warn().Err(res.Err).Str("path", res.Path).Msg("Strategy excluded from combined allocation")
		}
	}

	combined := portfolio.NewFragment("combine")
	if len(successful) > 0 {
		share := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(successful))))
		for _, alloc := range successful {
			for _, symbol := range alloc.Symbols() {
				combined.Add(symbol, alloc.Weight(symbol).Mul(share))
			}
		}
	}

	return portfolio.NewAllocation(combined, "combined", uuid.NewString(), time.Now().UTC())
}
