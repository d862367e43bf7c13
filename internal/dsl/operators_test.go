package dsl

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/maestro/internal/marketdata"
)

func fragmentWeights(t *testing.T, v Value) map[string]string {
	t.Helper()
	require.Equal(t, ValFragment, v.Kind)
	out := make(map[string]string)
	for _, symbol := range v.Fragment.Symbols() {
		w, _ := v.Fragment.Weight(symbol)
		out[symbol] = w.String()
	}
	return out
}

func TestDefsymphonyReturnsBodyOnly(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())

	v := mustEval(t, e, `(defsymphony "name" {:rebalance "daily"} (asset "SPY"))`)
	assert.Equal(t, ValString, v.Kind)
	assert.Equal(t, "SPY", v.Str)
}

func TestAssetRequiresString(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())

	root, err := Parse(`(asset 42)`)
	require.NoError(t, err)
	_, err = e.Eval(root)
	require.Error(t, err)

	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "asset", evalErr.Op)
}

func TestWeightEqual(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())

	v := mustEval(t, e, `(weight-equal ["SPY" "QQQ"] (asset "IWM") "SPY")`)
	weights := fragmentWeights(t, v)

	// Three unique symbols, SPY deduplicated, each 1/3.
	require.Len(t, weights, 3)
	sum := decimal.Zero
	for _, symbol := range []string{"SPY", "QQQ", "IWM"} {
		w, ok := v.Fragment.Weight(symbol)
		require.True(t, ok, symbol)
		sum = sum.Add(w)
	}
	one := decimal.NewFromInt(1)
	assert.True(t, sum.Sub(one).Abs().LessThan(decimal.New(1, -9)),
		"weights should sum to 1.0 within 1e-9, got %s", sum)
}

func TestWeightEqualPreservesOrder(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())
	v := mustEval(t, e, `(weight-equal ["C" "A" "B"])`)
	assert.Equal(t, []string{"C", "A", "B"}, v.Fragment.Symbols())
}

func TestWeightEqualEmpty(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())
	v := mustEval(t, e, `(weight-equal)`)
	require.Equal(t, ValFragment, v.Kind)
	assert.Equal(t, 0, v.Fragment.Len())
}

func TestWeightSpecified(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())

	v := mustEval(t, e, `(weight-specified 0.6 "AAPL" 0.4 "MSFT")`)
	weights := fragmentWeights(t, v)
	assert.Equal(t, map[string]string{"AAPL": "0.6", "MSFT": "0.4"}, weights)
}

func TestWeightSpecifiedSumsRepeatedSymbols(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())

	v := mustEval(t, e, `(weight-specified 0.6 "AAPL" 0.4 "AAPL")`)
	weights := fragmentWeights(t, v)
	assert.Equal(t, map[string]string{"AAPL": "1"}, weights)
}

func TestWeightSpecifiedScalesNestedFragment(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())

	v := mustEval(t, e, `(weight-specified 0.5 (weight-equal ["A" "B"]) 0.5 "C")`)
	weights := fragmentWeights(t, v)
	assert.Equal(t, "0.25", weights["A"])
	assert.Equal(t, "0.25", weights["B"])
	assert.Equal(t, "0.5", weights["C"])
}

func TestWeightSpecifiedOddArguments(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())

	for _, source := range []string{`(weight-specified)`, `(weight-specified 0.6 "AAPL" 0.4)`} {
		root, err := Parse(source)
		require.NoError(t, err)
		_, err = e.Eval(root)
		var evalErr *EvalError
		require.ErrorAs(t, err, &evalErr, source)
	}
}

func TestWeightInverseVolatility(t *testing.T) {
	provider := marketdata.NewFixtureProvider()
	// CALM oscillates half as much as WILD: strictly lower volatility.
	provider.SetCloses("CALM", alternating(60, 100, 0.01))
	provider.SetCloses("WILD", alternating(60, 100, 0.02))
	e, _ := testEvaluator(provider)

	v := mustEval(t, e, `(weight-inverse-volatility 20 ["CALM" "WILD"])`)
	require.Equal(t, ValFragment, v.Kind)

	calm, ok := v.Fragment.Weight("CALM")
	require.True(t, ok)
	wild, ok := v.Fragment.Weight("WILD")
	require.True(t, ok)

	assert.True(t, calm.GreaterThan(wild), "lower volatility must yield higher weight")

	sum := calm.Add(wild)
	assert.True(t, sum.Sub(decimal.NewFromInt(1)).Abs().LessThan(decimal.New(1, -9)),
		"weights should sum to 1.0, got %s", sum)
}

func TestWeightInverseVolatilitySkipsMissingHistory(t *testing.T) {
	provider := marketdata.NewFixtureProvider()
	provider.SetCloses("KNOWN", alternating(60, 100, 0.01))
	// NOHIST has no bars: volatility unobtainable, symbol skipped entirely.
	e, _ := testEvaluator(provider)

	v := mustEval(t, e, `(weight-inverse-volatility 20 ["KNOWN" "NOHIST"])`)
	weights := fragmentWeights(t, v)
	assert.Equal(t, map[string]string{"KNOWN": "1"}, weights)
}

func TestFilterSelectTop(t *testing.T) {
	provider := marketdata.NewFixtureProvider()
	provider.SetCloses("A", ascending(30))  // RSI near 100
	provider.SetCloses("B", descending(30)) // RSI near 0
	e, _ := testEvaluator(provider)

	v := mustEval(t, e, `(filter (rsi {:window 10}) (select-top 1) ["A" "B"])`)
	weights := fragmentWeights(t, v)
	assert.Equal(t, map[string]string{"A": "1"}, weights)
}

func TestFilterSelectBottom(t *testing.T) {
	provider := marketdata.NewFixtureProvider()
	provider.SetCloses("A", ascending(30))
	provider.SetCloses("B", descending(30))
	e, _ := testEvaluator(provider)

	v := mustEval(t, e, `(filter (rsi {:window 10}) (select-bottom 1) ["A" "B"])`)
	weights := fragmentWeights(t, v)
	assert.Equal(t, map[string]string{"B": "1"}, weights)
}

func TestFilterSelectsEqualWeights(t *testing.T) {
	provider := marketdata.NewFixtureProvider()
	provider.SetCloses("A", ascending(30))
	provider.SetCloses("B", descending(30))
	provider.SetCloses("C", alternating(30, 100, 0.01))
	e, _ := testEvaluator(provider)

	v := mustEval(t, e, `(filter (rsi {:window 10}) (select-top 2) ["A" "B" "C"])`)
	require.Equal(t, ValFragment, v.Kind)
	assert.Equal(t, 2, v.Fragment.Len())

	for _, symbol := range v.Fragment.Symbols() {
		w, _ := v.Fragment.Weight(symbol)
		assert.Equal(t, "0.5", w.String())
	}
}

func TestFilterRanksNeutralFallbackScores(t *testing.T) {
	provider := marketdata.NewFixtureProvider()
	provider.SetCloses("GOOD", ascending(30))
	// NOHIST has no bars: its RSI is the neutral midpoint 50, still a valid
	// score, so it is ranked below GOOD rather than excluded.
	e, _ := testEvaluator(provider)

	v := mustEval(t, e, `(filter (rsi {:window 10}) (select-top 2) ["GOOD" "NOHIST"])`)
	require.Equal(t, ValFragment, v.Kind)

	symbols := v.Fragment.Symbols()
	require.Len(t, symbols, 2)
	assert.Equal(t, "GOOD", symbols[0])
}

func TestFilterExcludesUnscorableCandidates(t *testing.T) {
	provider := marketdata.NewFixtureProvider()
	provider.SetCloses("HI", ascending(30))  // RSI near 100
	provider.SetCloses("LO", descending(30)) // RSI near 0
	e, _ := testEvaluator(provider)

	// The score expression yields a non-number for candidates with RSI <= 60
	// (the if has no else branch). Those candidates are excluded from the
	// ranking, not neutral-defaulted and not fatal to the filter.
	v := mustEval(t, e, `(filter (if (> (rsi {:window 10}) 60) (rsi {:window 10})) (select-top 2) ["HI" "LO"])`)
	weights := fragmentWeights(t, v)
	assert.Equal(t, map[string]string{"HI": "1"}, weights)
}

func TestFilterUnknownSelector(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())

	root, err := Parse(`(filter (rsi {:window 10}) (select-middle 1) ["A"])`)
	require.NoError(t, err)
	_, err = e.Eval(root)
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "filter", evalErr.Op)
}

func TestGroupPassThrough(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())

	// A body whose only expression yields a bare boolean: no weights were
	// produced, so the last value passes through unchanged.
	v := mustEval(t, e, `(group "check" (> 2 1))`)
	assert.Equal(t, ValBool, v.Kind)
	assert.True(t, v.Bool)
}

func TestGroupMergesFragments(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())

	v := mustEval(t, e, `(group "both" (weight-equal ["A" "B"]) (weight-equal ["B" "C"]))`)
	weights := fragmentWeights(t, v)

	require.Len(t, weights, 3)
	assert.Equal(t, "0.5", weights["A"])
	assert.Equal(t, "1", weights["B"]) // 0.5 + 0.5, symbol-wise summation
	assert.Equal(t, "0.5", weights["C"])
}

func TestGroupTreatsBareSymbolAsWeightBearing(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())

	v := mustEval(t, e, `(group "mixed" (asset "SPY") (weight-equal ["QQQ"]))`)
	weights := fragmentWeights(t, v)
	assert.Equal(t, "1", weights["SPY"])
	assert.Equal(t, "1", weights["QQQ"])
}

func TestIndicatorRequiresSubject(t *testing.T) {
	e, _ := testEvaluator(marketdata.NewFixtureProvider())

	root, err := Parse(`(rsi {:window 10})`)
	require.NoError(t, err)
	_, err = e.Eval(root)
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "rsi", evalErr.Op)
	assert.Contains(t, evalErr.Message, "no subject symbol")
}

func TestIndicatorWithExplicitSymbol(t *testing.T) {
	provider := marketdata.NewFixtureProvider()
	provider.SetCloses("UP", ascending(30))
	e, _ := testEvaluator(provider)

	v := mustEval(t, e, `(rsi "UP" {:window 10})`)
	require.Equal(t, ValNumber, v.Kind)
	assert.True(t, v.Num.GreaterThan(decimal.NewFromInt(50)))
}

func TestCurrentPrice(t *testing.T) {
	provider := marketdata.NewFixtureProvider()
	provider.SetCloses("PX", []float64{100, 101, 102.5})
	e, _ := testEvaluator(provider)

	v := mustEval(t, e, `(current-price "PX")`)
	require.Equal(t, ValNumber, v.Kind)
	assert.Equal(t, "102.5", v.Num.String())
}
