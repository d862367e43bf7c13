package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns.
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(252)
}

// Returns converts a price series to percentage returns.
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return returns
}

// CumulativeReturn calculates the total return over the whole price series.
// Returns nil if fewer than two prices are available or the first price is zero.
func CumulativeReturn(prices []float64) *float64 {
	if len(prices) < 2 || prices[0] == 0 {
		return nil
	}
	result := (prices[len(prices)-1] - prices[0]) / prices[0]
	return &result
}

// MaxDrawdown calculates the largest peak-to-trough decline in the price
// series, expressed as a positive fraction (0.25 = a 25% drawdown).
func MaxDrawdown(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	peak := prices[0]
	maxDD := 0.0
	for _, p := range prices[1:] {
		if p > peak {
			peak = p
			continue
		}
		if peak > 0 {
			dd := (peak - p) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
