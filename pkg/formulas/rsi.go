package formulas

import (
	"github.com/markcheno/go-talib"
)

// RSI calculates the Relative Strength Index over the given period.
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over N periods
//
// Returns the current RSI value (0-100) or nil if there is insufficient data.
func RSI(closes []float64, period int) *float64 {
	if period < 1 || len(closes) < period+1 {
		return nil
	}

	values := talib.Rsi(closes, period)
	if len(values) == 0 {
		return nil
	}

	last := values[len(values)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
