// Package marketdata defines the boundary to the historical price backend:
// the Bar model, the BarProvider capability the indicator gateway consumes,
// and local implementations (sqlite-backed history store, in-memory fixture).
package marketdata

import (
	"context"
	"time"
)

// Bar is one daily OHLCV bar.
type Bar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// BarProvider supplies ordered (oldest first) daily bars for a symbol.
// Implementations may be network- or disk-bound; callers bound them with ctx.
type BarProvider interface {
	GetDailyBars(ctx context.Context, symbol string, lookbackDays int) ([]Bar, error)
}

// Closes extracts the close prices from a bar series, oldest first.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
