// Package storage persists evaluation outcomes: allocations and traces form
// the audit history of every strategy run.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/maestro/internal/portfolio"
	"github.com/aristath/maestro/internal/trace"
)

// Repository handles evaluation audit database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new audit repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "storage").Logger(),
	}
}

// InitSchema creates the audit tables if they do not exist.
func (r *Repository) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			trace_id       TEXT PRIMARY KEY,
			correlation_id TEXT NOT NULL,
			strategy_id    TEXT NOT NULL,
			started_at     INTEGER NOT NULL,
			completed_at   INTEGER NOT NULL,
			success        INTEGER NOT NULL,
			error_message  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS allocation_weights (
			correlation_id TEXT NOT NULL,
			strategy_id    TEXT NOT NULL,
			as_of          INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			weight         TEXT NOT NULL,
			position       INTEGER NOT NULL,
			PRIMARY KEY (correlation_id, symbol)
		)`,
		`CREATE TABLE IF NOT EXISTS trace_entries (
			trace_id    TEXT NOT NULL,
			position    INTEGER NOT NULL,
			step_id     TEXT NOT NULL,
			step_type   TEXT NOT NULL,
			description TEXT NOT NULL,
			detail      TEXT NOT NULL DEFAULT '{}',
			PRIMARY KEY (trace_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_strategy
			ON evaluations (strategy_id, completed_at)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create audit schema: %w", err)
		}
	}
	return nil
}

// SaveEvaluation persists one completed trace and, when the evaluation
// succeeded, its allocation. alloc may be nil for failed evaluations.
func (r *Repository) SaveEvaluation(ctx context.Context, alloc *portfolio.StrategyAllocation, tr *trace.Trace) error {
	if tr == nil {
		return fmt.Errorf("cannot save evaluation without a trace")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin evaluation transaction: %w", err)
	}
	defer tx.Rollback()

	success := 0
	if tr.Success() {
		success = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO evaluations
			(trace_id, correlation_id, strategy_id, started_at, completed_at, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.CorrelationID, tr.StrategyID,
		tr.StartedAt.Unix(), tr.CompletedAt.Unix(), success, tr.ErrorMessage())
	if err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}

	for i, entry := range tr.Entries() {
		detail, err := json.Marshal(map[string]any{
			"inputs":   entry.Inputs,
			"outputs":  entry.Outputs,
			"metadata": entry.Metadata,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal trace entry detail: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO trace_entries
				(trace_id, position, step_id, step_type, description, detail)
			VALUES (?, ?, ?, ?, ?, ?)`,
			tr.ID, i, entry.StepID, entry.StepType, entry.Description, string(detail))
		if err != nil {
			return fmt.Errorf("failed to insert trace entry: %w", err)
		}
	}

	if alloc != nil {
		for i, symbol := range alloc.Symbols() {
			_, err = tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO allocation_weights
					(correlation_id, strategy_id, as_of, symbol, weight, position)
				VALUES (?, ?, ?, ?, ?, ?)`,
				alloc.CorrelationID, alloc.StrategyID, alloc.AsOf.Unix(),
				symbol, alloc.Weight(symbol).String(), i)
			if err != nil {
				return fmt.Errorf("failed to insert allocation weight: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit evaluation transaction: %w", err)
	}

	r.log.Debug().Str("trace_id", tr.ID).Str("strategy", tr.StrategyID).Msg("Evaluation saved")
	return nil
}

// StoredWeight is one persisted allocation entry.
type StoredWeight struct {
	Symbol string
	Weight decimal.Decimal
}

// LatestAllocation returns the most recent successful allocation for a
// strategy, in stored position order, with its as-of time.
func (r *Repository) LatestAllocation(ctx context.Context, strategyID string) ([]StoredWeight, time.Time, error) {
	var correlationID string
	err := r.db.QueryRowContext(ctx, `
		SELECT correlation_id FROM evaluations
		WHERE strategy_id = ? AND success = 1
		ORDER BY completed_at DESC LIMIT 1`, strategyID).Scan(&correlationID)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query latest evaluation: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, weight, as_of FROM allocation_weights
		WHERE correlation_id = ?
		ORDER BY position ASC`, correlationID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query allocation weights: %w", err)
	}
	defer rows.Close()

	var weights []StoredWeight
	var asOf time.Time
	for rows.Next() {
		var symbol, weightStr string
		var asOfUnix int64
		if err := rows.Scan(&symbol, &weightStr, &asOfUnix); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan allocation weight: %w", err)
		}
		weight, err := decimal.NewFromString(weightStr)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to parse stored weight %q: %w", weightStr, err)
		}
		weights = append(weights, StoredWeight{Symbol: symbol, Weight: weight})
		asOf = time.Unix(asOfUnix, 0).UTC()
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("error iterating allocation weights: %w", err)
	}

	return weights, asOf, nil
}
