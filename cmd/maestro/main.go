// Package main is the entry point for the maestro strategy evaluation
// engine. It parses symphony files (S-expression trading strategies),
// evaluates them against historical market data, and produces normalized
// portfolio allocations with full audit traces.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/aristath/maestro/internal/config"
	"github.com/aristath/maestro/internal/database"
	"github.com/aristath/maestro/internal/engine"
	"github.com/aristath/maestro/internal/events"
	"github.com/aristath/maestro/internal/marketdata"
	"github.com/aristath/maestro/internal/scheduler"
	"github.com/aristath/maestro/internal/storage"
	"github.com/aristath/maestro/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("maestro exited with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	historyDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("history"),
		Profile: database.ProfileCache,
		Name:    "history",
	})
	if err != nil {
		return err
	}
	defer historyDB.Close()

	auditDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("audit"),
		Profile: database.ProfileAudit,
		Name:    "audit",
	})
	if err != nil {
		return err
	}
	defer auditDB.Close()

	history := marketdata.NewHistoryStore(historyDB.Conn(), log)
	if err := history.InitSchema(ctx); err != nil {
		return err
	}
	store := storage.NewRepository(auditDB.Conn(), log)
	if err := store.InitSchema(ctx); err != nil {
		return err
	}

	bus := events.NewBus(log)
	eng := engine.New(engine.Config{
		Provider:     history,
		Bus:          bus,
		LookbackDays: cfg.LookbackDays,
		Log:          log,
	})
	runner := engine.NewRunner(eng, cfg.Workers, log)

	// Evaluation requests arriving over the bus are served directly.
	bus.Subscribe(events.StrategyEvaluationRequested, func(data any) {
		req, ok := data.(*events.StrategyEvaluationRequestedData)
		if !ok {
			return
		}
		alloc, tr, err := eng.EvaluateFile(ctx, req.ConfigPath, req.CorrelationID)
		if err != nil {
			log.Error().Err(err).Str("path", req.ConfigPath).Msg("Requested evaluation failed")
		}
		if tr != nil {
			if saveErr := store.SaveEvaluation(ctx, alloc, tr); saveErr != nil {
				log.Error().Err(saveErr).Msg("Failed to persist requested evaluation")
			}
		}
	})

	// Direct mode: evaluate the files given on the command line and print
	// the combined allocation as JSON.
	if len(os.Args) > 1 {
		return evaluateOnce(ctx, runner, store, os.Args[1:], log)
	}

	job := scheduler.NewEvaluateStrategiesJob(runner, store, cfg.StrategiesDir, cfg.StrategyGlob, log)
	if !cfg.ScheduleOn {
		return job.Run()
	}

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.Schedule, job); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutdown signal received")
	return nil
}

func evaluateOnce(ctx context.Context, runner *engine.Runner, store *storage.Repository, paths []string, log zerolog.Logger) error {
	combined, results := runner.EvaluateAll(ctx, paths)

	for _, res := range results {
		if res.Err != nil {
			log.Error().Err(res.Err).Str("path", res.Path).Msg("Strategy failed")
		}
		if res.Trace != nil {
			if err := store.SaveEvaluation(ctx, res.Allocation, res.Trace); err != nil {
				log.Error().Err(err).Str("path", res.Path).Msg("Failed to persist evaluation")
			}
		}
	}

	weights := make(map[string]string)
	for symbol, w := range combined.TargetWeights() {
		weights[symbol] = w.String()
	}
	out, err := json.MarshalIndent(map[string]any{
		"correlation_id": combined.CorrelationID,
		"as_of":          combined.AsOf,
		"target_weights": weights,
	}, "", "  ")
	if err != nil {
		return err
	}
	os.Stdout.Write(append(out, '\n'))
	return nil
}
