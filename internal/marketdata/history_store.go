package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HistoryStore persists daily bars in sqlite so previously downloaded
// history can be served without hitting the market-data backend again.
// It implements BarProvider.
type HistoryStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryStore creates a new history store on the given connection.
func NewHistoryStore(db *sql.DB, log zerolog.Logger) *HistoryStore {
	return &HistoryStore{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// InitSchema creates the bars table if it does not exist.
func (s *HistoryStore) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS bars (
			symbol TEXT NOT NULL,
			date   INTEGER NOT NULL,
			open   REAL NOT NULL,
			high   REAL NOT NULL,
			low    REAL NOT NULL,
			close  REAL NOT NULL,
			volume REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (symbol, date)
		)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create bars table: %w", err)
	}
	return nil
}

// SaveBars upserts a bar series in one transaction.
func (s *HistoryStore) SaveBars(ctx context.Context, bars []Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bars transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume`)
	if err != nil {
		return fmt.Errorf("failed to prepare bars upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		day := b.Date.UTC().Truncate(24 * time.Hour).Unix()
		if _, err := stmt.ExecContext(ctx, b.Symbol, day, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("failed to upsert bar %s@%s: %w", b.Symbol, b.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bars transaction: %w", err)
	}

	s.log.Debug().Int("count", len(bars)).Str("symbol", bars[0].Symbol).Msg("Bars saved")
	return nil
}

// GetDailyBars returns the stored bars for a symbol within the lookback
// window, oldest first.
func (s *HistoryStore) GetDailyBars(ctx context.Context, symbol string, lookbackDays int) ([]Bar, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -lookbackDays).Truncate(24 * time.Hour).Unix()

	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND date >= ?
		ORDER BY date ASC`, symbol, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []Bar
	for rows.Next() {
		var b Bar
		var day int64
		if err := rows.Scan(&b.Symbol, &day, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		b.Date = time.Unix(day, 0).UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bars: %w", err)
	}

	return bars, nil
}
