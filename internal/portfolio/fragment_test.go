package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestFragmentAddSumsDuplicates(t *testing.T) {
	f := NewFragment("test")
	f.Add("AAPL", d("0.3"))
	f.Add("AAPL", d("0.2"))

	w, ok := f.Weight("AAPL")
	require.True(t, ok)
	assert.Equal(t, "0.5", w.String())
	assert.Equal(t, 1, f.Len())
}

func TestFragmentPreservesInsertionOrder(t *testing.T) {
	f := NewFragment("test")
	f.Add("C", d("0.1"))
	f.Add("A", d("0.2"))
	f.Add("B", d("0.3"))
	f.Add("A", d("0.1")) // existing symbol keeps its slot

	assert.Equal(t, []string{"C", "A", "B"}, f.Symbols())
}

func TestFragmentNormalized(t *testing.T) {
	f := NewFragment("test")
	f.Add("A", d("2"))
	f.Add("B", d("2"))

	norm := f.Normalized()
	a, _ := norm.Weight("A")
	b, _ := norm.Weight("B")
	assert.Equal(t, "0.5", a.String())
	assert.Equal(t, "0.5", b.String())

	// Original unchanged.
	orig, _ := f.Weight("A")
	assert.Equal(t, "2", orig.String())
}

func TestFragmentNormalizedEmpty(t *testing.T) {
	f := NewFragment("test")
	norm := f.Normalized()
	assert.Equal(t, 0, norm.Len())
}

func TestFragmentMerge(t *testing.T) {
	a := NewFragment("a")
	a.Add("X", d("0.5"))
	b := NewFragment("b")
	b.Add("X", d("0.25"))
	b.Add("Y", d("0.25"))

	a.Merge(b)
	x, _ := a.Weight("X")
	y, _ := a.Weight("Y")
	assert.Equal(t, "0.75", x.String())
	assert.Equal(t, "0.25", y.String())
}

func TestFragmentIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, NewFragment("a").ID, NewFragment("a").ID)
}

func TestNewAllocationNormalizes(t *testing.T) {
	f := NewFragment("test")
	f.Add("A", d("3"))
	f.Add("B", d("1"))

	alloc := NewAllocation(f, "strat", "corr", time.Now())
	assert.Equal(t, "0.75", alloc.Weight("A").String())
	assert.Equal(t, "0.25", alloc.Weight("B").String())
	assert.False(t, alloc.IsCashOnly())
}

func TestNewAllocationCashFallback(t *testing.T) {
	// Nil and empty fragments both become 100% cash, never an empty map.
	for _, f := range []*Fragment{nil, NewFragment("test")} {
		alloc := NewAllocation(f, "strat", "corr", time.Now())
		require.Equal(t, []string{CashSymbol}, alloc.Symbols())
		assert.Equal(t, "1", alloc.Weight(CashSymbol).String())
		assert.True(t, alloc.IsCashOnly())
	}
}

func TestAllocationWeightsSumToOne(t *testing.T) {
	f := NewFragment("test")
	f.Add("A", d("1"))
	f.Add("B", d("1"))
	f.Add("C", d("1"))

	alloc := NewAllocation(f, "strat", "corr", time.Now())
	sum := decimal.Zero
	for _, w := range alloc.TargetWeights() {
		sum = sum.Add(w)
	}
	tolerance := d("0.01")
	assert.True(t, sum.Sub(decimal.NewFromInt(1)).Abs().LessThanOrEqual(tolerance),
		"weights should sum to 1.0 within tolerance, got %s", sum)
}
