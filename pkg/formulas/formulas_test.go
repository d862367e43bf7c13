package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rising(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func TestRSIInsufficientData(t *testing.T) {
	assert.Nil(t, RSI([]float64{1, 2, 3}, 14))
	assert.Nil(t, RSI(nil, 14))
	assert.Nil(t, RSI(rising(30), 0))
}

func TestRSIRisingSeries(t *testing.T) {
	rsi := RSI(rising(30), 14)
	require.NotNil(t, rsi)
	// Gains only: RSI pinned at the ceiling.
	assert.InDelta(t, 100.0, *rsi, 0.001)
}

func TestRSIFallingSeries(t *testing.T) {
	falling := make([]float64, 30)
	for i := range falling {
		falling[i] = 200 - float64(i)
	}
	rsi := RSI(falling, 14)
	require.NotNil(t, rsi)
	assert.InDelta(t, 0.0, *rsi, 0.001)
}

func TestSMA(t *testing.T) {
	sma := SMA([]float64{1, 2, 3, 4, 5}, 5)
	require.NotNil(t, sma)
	assert.InDelta(t, 3.0, *sma, 1e-9)

	assert.Nil(t, SMA([]float64{1, 2}, 5))
}

func TestReturns(t *testing.T) {
	returns := Returns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)

	assert.Empty(t, Returns([]float64{100}))
}

func TestCumulativeReturn(t *testing.T) {
	cr := CumulativeReturn([]float64{100, 105, 120})
	require.NotNil(t, cr)
	assert.InDelta(t, 0.20, *cr, 1e-9)

	assert.Nil(t, CumulativeReturn([]float64{100}))
	assert.Nil(t, CumulativeReturn([]float64{0, 100}))
}

func TestMaxDrawdown(t *testing.T) {
	// Peak 120, trough 90: 25% drawdown.
	dd := MaxDrawdown([]float64{100, 120, 90, 110})
	assert.InDelta(t, 0.25, dd, 1e-9)

	assert.Equal(t, 0.0, MaxDrawdown(rising(10)))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100}))
}

func TestStdDevAndVolatility(t *testing.T) {
	flat := []float64{100, 100, 100, 100}
	assert.Equal(t, 0.0, StdDev(Returns(flat)))

	wild := []float64{100, 110, 99, 112, 98}
	calm := []float64{100, 101, 100.5, 101.2, 100.8}
	assert.Greater(t, AnnualizedVolatility(Returns(wild)), AnnualizedVolatility(Returns(calm)))
}

func TestWindowVolatilityUsesTrailingWindow(t *testing.T) {
	// Calm history followed by a wild recent window.
	series := append(make([]float64, 0, 40), rising(20)...)
	price := series[len(series)-1]
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			price *= 1.05
		} else {
			price *= 0.95
		}
		series = append(series, price)
	}

	recent := WindowVolatility(series, 10)
	full := WindowVolatility(series, 39)
	require.NotNil(t, recent)
	require.NotNil(t, full)
	assert.Greater(t, *recent, 0.0)

	assert.Nil(t, WindowVolatility(rising(5), 10))
}

func TestMeanReturn(t *testing.T) {
	mr := MeanReturn([]float64{100, 110, 121}, 2)
	require.NotNil(t, mr)
	assert.InDelta(t, 0.10, *mr, 1e-9)

	assert.Nil(t, MeanReturn([]float64{100, 110}, 5))
}
