package marketdata

import (
	"context"
	"sync"
	"time"
)

// FixtureProvider is a deterministic in-memory BarProvider used in tests and
// direct-call mode. It records how many times each symbol was fetched so
// tests can verify caching behavior.
type FixtureProvider struct {
	mu    sync.Mutex
	bars  map[string][]Bar
	calls map[string]int
}

// NewFixtureProvider creates an empty fixture provider.
func NewFixtureProvider() *FixtureProvider {
	return &FixtureProvider{
		bars:  make(map[string][]Bar),
		calls: make(map[string]int),
	}
}

// SetBars replaces the bar series for a symbol.
func (p *FixtureProvider) SetBars(symbol string, bars []Bar) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bars[symbol] = bars
}

// SetCloses builds a daily bar series for a symbol from close prices,
// ending yesterday. Convenience for tests that only care about closes.
func (p *FixtureProvider) SetCloses(symbol string, closes []float64) {
	bars := make([]Bar, len(closes))
	start := time.Now().UTC().AddDate(0, 0, -len(closes))
	for i, c := range closes {
		bars[i] = Bar{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
		}
	}
	p.SetBars(symbol, bars)
}

// GetDailyBars returns the configured series, ignoring lookbackDays beyond
// slicing to at most that many bars.
func (p *FixtureProvider) GetDailyBars(_ context.Context, symbol string, lookbackDays int) ([]Bar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls[symbol]++
	bars := p.bars[symbol]
	if lookbackDays > 0 && len(bars) > lookbackDays {
		bars = bars[len(bars)-lookbackDays:]
	}
	out := make([]Bar, len(bars))
	copy(out, bars)
	return out, nil
}

// Calls returns how many times a symbol's bars were fetched.
func (p *FixtureProvider) Calls(symbol string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[symbol]
}
