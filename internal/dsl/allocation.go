package dsl

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/maestro/internal/portfolio"
)

// BuildAllocation converts the final evaluation value into a normalized
// allocation: a fragment's weights become target weights, a bare string
// becomes a single-symbol 100% allocation, a non-empty list of strings
// becomes an equal-weight allocation, and anything else falls back to 100%
// cash. The result is never an empty map.
func BuildAllocation(v Value, strategyID, correlationID string, asOf time.Time) *portfolio.StrategyAllocation {
	var f *portfolio.Fragment

	switch v.Kind {
	case ValFragment:
		f = v.Fragment
	case ValString:
		if v.Str != "" {
			f = portfolio.NewFragment("result")
			f.Add(v.Str, decimal.NewFromInt(1))
		}
	case ValList:
		seen := make(map[string]bool)
		var symbols []string
		collectSymbols(v, seen, &symbols)
		if len(symbols) > 0 {
			f = portfolio.NewFragment("result")
			for _, symbol := range symbols {
				f.Add(symbol, decimal.NewFromInt(1))
			}
		}
	}

	return portfolio.NewAllocation(f, strategyID, correlationID, asOf)
}
