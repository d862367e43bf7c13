package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA calculates the simple moving average of the last `period` closes.
// Returns nil if there is insufficient data.
func SMA(closes []float64, period int) *float64 {
	if period < 1 || len(closes) < period {
		return nil
	}

	values := talib.Sma(closes, period)
	if len(values) == 0 {
		return nil
	}

	last := values[len(values)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// MeanReturn calculates the average daily return over the last `period`
// returns derived from the price series. Returns nil on insufficient data.
func MeanReturn(closes []float64, period int) *float64 {
	returns := Returns(closes)
	if period < 1 || len(returns) < period {
		return nil
	}

	window := returns[len(returns)-period:]
	result := Mean(window)
	return &result
}

// ReturnStdDev calculates the standard deviation of the last `period` daily
// returns. Returns nil on insufficient data.
func ReturnStdDev(closes []float64, period int) *float64 {
	returns := Returns(closes)
	if period < 2 || len(returns) < period {
		return nil
	}

	window := returns[len(returns)-period:]
	result := StdDev(window)
	return &result
}

// WindowVolatility calculates annualized volatility over the last `period`
// daily returns. Returns nil on insufficient data.
func WindowVolatility(closes []float64, period int) *float64 {
	returns := Returns(closes)
	if period < 2 || len(returns) < period {
		return nil
	}

	window := returns[len(returns)-period:]
	result := AnnualizedVolatility(window)
	return &result
}
