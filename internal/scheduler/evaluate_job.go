package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/maestro/internal/engine"
	"github.com/aristath/maestro/internal/storage"
)

// EvaluateStrategiesJob re-evaluates every symphony file in the strategies
// directory and persists the outcomes. Files are evaluated in sorted path
// order so repeated runs are comparable.
type EvaluateStrategiesJob struct {
	runner        *engine.Runner
	store         *storage.Repository
	strategiesDir string
	glob          string
	log           zerolog.Logger
}

// NewEvaluateStrategiesJob creates the periodic evaluation job. store may be
// nil when persistence is disabled.
func NewEvaluateStrategiesJob(runner *engine.Runner, store *storage.Repository, strategiesDir, glob string, log zerolog.Logger) *EvaluateStrategiesJob {
	return &EvaluateStrategiesJob{
		runner:        runner,
		store:         store,
		strategiesDir: strategiesDir,
		glob:          glob,
		log:           log.With().Str("job", "evaluate_strategies").Logger(),
	}
}

// Name returns the job name for scheduler logging.
func (j *EvaluateStrategiesJob) Name() string {
	return "evaluate_strategies"
}

// Run evaluates all strategy files once.
func (j *EvaluateStrategiesJob) Run() error {
	paths, err := filepath.Glob(filepath.Join(j.strategiesDir, j.glob))
	if err != nil {
		return fmt.Errorf("failed to glob strategies: %w", err)
	}
	if len(paths) == 0 {
		j.log.Info().Str("dir", j.strategiesDir).Msg("No strategy files found")
		return nil
	}
	sort.Strings(paths)

	ctx := context.Background()
	combined, results := j.runner.EvaluateAll(ctx, paths)

	failures := 0
	for _, res := range results {
		if res.Err != nil {
			failures++
		}
		if j.store != nil && res.Trace != nil {
			if err := j.store.SaveEvaluation(ctx, res.Allocation, res.Trace); err != nil {
				j.log.Error().Err(err).Str("path", res.Path).Msg("Failed to persist evaluation")
			}
		}
	}

	j.log.Info().
		Int("strategies", len(paths)).
		Int("failures", failures).
		Int("combined_symbols", len(combined.Symbols())).
		Msg("Strategy batch evaluated")

	if failures == len(paths) {
		return fmt.Errorf("all %d strategies failed", failures)
	}
	return nil
}
