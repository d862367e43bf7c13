// Package portfolio defines the weight-distribution types produced by
// strategy evaluation: intermediate fragments emitted by individual
// operators and the final normalized allocation.
package portfolio

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fragment is an intermediate weight distribution produced by one operator.
// Weights are non-negative and need not sum to 1.0; callers normalize.
// Symbol insertion order is preserved so downstream output is deterministic.
type Fragment struct {
	ID         string
	SourceStep string

	symbols []string
	weights map[string]decimal.Decimal
}

// NewFragment creates an empty fragment attributed to the named operator step.
func NewFragment(sourceStep string) *Fragment {
	return &Fragment{
		ID:         uuid.NewString(),
		SourceStep: sourceStep,
		weights:    make(map[string]decimal.Decimal),
	}
}

// Add accumulates weight onto a symbol. Contributions for the same symbol
// are summed, not overwritten.
func (f *Fragment) Add(symbol string, weight decimal.Decimal) {
	if existing, ok := f.weights[symbol]; ok {
		f.weights[symbol] = existing.Add(weight)
		return
	}
	f.symbols = append(f.symbols, symbol)
	f.weights[symbol] = weight
}

// Weight returns the accumulated weight for a symbol.
func (f *Fragment) Weight(symbol string) (decimal.Decimal, bool) {
	w, ok := f.weights[symbol]
	return w, ok
}

// Symbols returns the symbols in insertion order.
func (f *Fragment) Symbols() []string {
	out := make([]string, len(f.symbols))
	copy(out, f.symbols)
	return out
}

// Len returns the number of distinct symbols in the fragment.
func (f *Fragment) Len() int {
	return len(f.symbols)
}

// Total returns the sum of all weights.
func (f *Fragment) Total() decimal.Decimal {
	total := decimal.Zero
	for _, symbol := range f.symbols {
		total = total.Add(f.weights[symbol])
	}
	return total
}

// Normalized returns a new fragment whose weights sum to 1.0. An empty
// fragment (or one whose total is zero) is returned as an empty fragment.
func (f *Fragment) Normalized() *Fragment {
	out := NewFragment(f.SourceStep)
	total := f.Total()
	if total.IsZero() {
		return out
	}
	for _, symbol := range f.symbols {
		out.Add(symbol, f.weights[symbol].Div(total))
	}
	return out
}

// Scaled returns a new fragment with every weight multiplied by factor.
func (f *Fragment) Scaled(factor decimal.Decimal) *Fragment {
	out := NewFragment(f.SourceStep)
	for _, symbol := range f.symbols {
		out.Add(symbol, f.weights[symbol].Mul(factor))
	}
	return out
}

// Merge adds every weight from other into f, symbol-wise.
func (f *Fragment) Merge(other *Fragment) {
	for _, symbol := range other.symbols {
		f.Add(symbol, other.weights[symbol])
	}
}
