package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashSymbol is the symbol used when an evaluation produces no investable
// weights. An allocation is never empty; it falls back to 100% cash.
const CashSymbol = "CASH"

// StrategyAllocation is the terminal output of one strategy evaluation:
// a normalized symbol-to-weight map whose values sum to 1.0. Immutable
// after construction.
type StrategyAllocation struct {
	CorrelationID string
	StrategyID    string
	AsOf          time.Time

	symbols []string
	weights map[string]decimal.Decimal

	// Optional metadata, passed through unchanged.
	PortfolioValue *decimal.Decimal
	Constraints    map[string]string
}

// NewAllocation builds a normalized allocation from a fragment. The
// fragment's weights are scaled so they sum to 1.0; an empty or zero-total
// fragment becomes a 100% cash allocation.
func NewAllocation(f *Fragment, strategyID, correlationID string, asOf time.Time) *StrategyAllocation {
	a := &StrategyAllocation{
		CorrelationID: correlationID,
		StrategyID:    strategyID,
		AsOf:          asOf,
		weights:       make(map[string]decimal.Decimal),
	}
	if f == nil || f.Total().IsZero() {
		a.symbols = []string{CashSymbol}
		a.weights[CashSymbol] = decimal.NewFromInt(1)
		return a
	}
	norm := f.Normalized()
	for _, symbol := range norm.Symbols() {
		w, _ := norm.Weight(symbol)
		a.symbols = append(a.symbols, symbol)
		a.weights[symbol] = w
	}
	return a
}

// Symbols returns the allocated symbols in deterministic order.
func (a *StrategyAllocation) Symbols() []string {
	out := make([]string, len(a.symbols))
	copy(out, a.symbols)
	return out
}

// Weight returns the target weight for a symbol (zero if absent).
func (a *StrategyAllocation) Weight(symbol string) decimal.Decimal {
	return a.weights[symbol]
}

// TargetWeights returns a copy of the symbol-to-weight map.
func (a *StrategyAllocation) TargetWeights() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(a.weights))
	for k, v := range a.weights {
		out[k] = v
	}
	return out
}

// IsCashOnly reports whether the allocation is the 100% cash fallback.
func (a *StrategyAllocation) IsCashOnly() bool {
	return len(a.symbols) == 1 && a.symbols[0] == CashSymbol
}
