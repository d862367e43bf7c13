// Package indicators computes technical indicator values over historical
// bars supplied by the market-data boundary. A Gateway is created per
// evaluation; its cache is never shared across concurrent evaluations.
package indicators

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/maestro/internal/marketdata"
	"github.com/aristath/maestro/pkg/formulas"
)

// Type identifies a supported indicator.
type Type string

const (
	RSI                 Type = "rsi"
	CurrentPrice        Type = "current-price"
	MovingAveragePrice  Type = "moving-average-price"
	MovingAverageReturn Type = "moving-average-return"
	CumulativeReturn    Type = "cumulative-return"
	Volatility          Type = "volatility"
	MaxDrawdown         Type = "max-drawdown"
	StdDevReturn        Type = "standard-deviation-return"
)

// DefaultWindow returns the default lookback window for an indicator type.
func DefaultWindow(t Type) int {
	if t == RSI {
		return 14
	}
	return 20
}

// Request identifies one indicator computation.
type Request struct {
	Symbol string
	Type   Type
	Params map[string]int // e.g. {"window": 10}
}

// Result carries the computed value plus provenance. Fallback is true when
// the value is a neutral default substituted for missing/insufficient data;
// such results are usable as scores but must not be treated as observations
// (weight-inverse-volatility skips them).
type Result struct {
	Value      decimal.Decimal
	DataSource string
	Fallback   bool
}

const (
	sourceHistory  = "historical-bars"
	sourceFallback = "neutral-fallback"
)

// rsiNeutral is the RSI midpoint used when history is missing.
var rsiNeutral = decimal.NewFromInt(50)

// Gateway resolves indicator requests against a BarProvider, memoizing
// results per (symbol, type, sorted params) for the lifetime of one
// evaluation. Not safe for concurrent use; create one per evaluation.
type Gateway struct {
	provider     marketdata.BarProvider
	lookbackDays int
	cache        map[string]Result
	log          zerolog.Logger
}

// NewGateway creates a gateway for a single evaluation pass.
func NewGateway(provider marketdata.BarProvider, lookbackDays int, log zerolog.Logger) *Gateway {
	return &Gateway{
		provider:     provider,
		lookbackDays: lookbackDays,
		cache:        make(map[string]Result),
		log:          log.With().Str("component", "indicators").Logger(),
	}
}

// Get computes (or returns the memoized) indicator value for a request.
// Missing or insufficient history yields a neutral fallback result, not an
// error; the error return covers malformed requests and unknown types only.
func (g *Gateway) Get(ctx context.Context, req Request) (Result, error) {
	if req.Symbol == "" {
		return Result{}, fmt.Errorf("indicator %s requested with empty symbol", req.Type)
	}

	key := cacheKey(req)
	if cached, ok := g.cache[key]; ok {
		return cached, nil
	}

	result, err := g.compute(ctx, req)
	if err != nil {
		return Result{}, err
	}

	g.cache[key] = result
	return result, nil
}

func (g *Gateway) compute(ctx context.Context, req Request) (Result, error) {
	window := req.Params["window"]
	if window <= 0 {
		window = DefaultWindow(req.Type)
	}

	bars, err := g.provider.GetDailyBars(ctx, req.Symbol, g.lookbackDays)
	if err != nil {
		// Fail soft: a data-backend failure degrades to the neutral value
		// so one symbol's outage cannot abort the whole evaluation.
		g.log.Warn().Err(err).Str("symbol", req.Symbol).Str("indicator", string(req.Type)).
			Msg("Bar fetch failed, using neutral fallback")
		return g.fallback(req.Type), nil
	}
	closes := marketdata.Closes(bars)

	var value *float64
	switch req.Type {
	case RSI:
		value = formulas.RSI(closes, window)
	case CurrentPrice:
		if len(closes) > 0 {
			last := closes[len(closes)-1]
			value = &last
		}
	case MovingAveragePrice:
		value = formulas.SMA(closes, window)
	case MovingAverageReturn:
		value = formulas.MeanReturn(closes, window)
	case CumulativeReturn:
		value = formulas.CumulativeReturn(tailWindow(closes, req.Params["window"]))
	case Volatility:
		value = formulas.WindowVolatility(closes, window)
	case StdDevReturn:
		value = formulas.ReturnStdDev(closes, window)
	case MaxDrawdown:
		series := tailWindow(closes, req.Params["window"])
		if len(series) >= 2 {
			dd := formulas.MaxDrawdown(series)
			value = &dd
		}
	default:
		return Result{}, fmt.Errorf("unknown indicator type: %s", req.Type)
	}

	if value == nil {
		g.log.Debug().Str("symbol", req.Symbol).Str("indicator", string(req.Type)).
			Int("bars", len(closes)).Msg("Insufficient history, using neutral fallback")
		return g.fallback(req.Type), nil
	}

	return Result{
		Value:      decimal.NewFromFloat(*value),
		DataSource: sourceHistory,
	}, nil
}

// tailWindow limits a close series to the last window+1 prices, so windowed
// return math sees exactly window daily returns. A non-positive window keeps
// the whole series; cumulative-return and max-drawdown cover the full
// lookback unless a window is requested explicitly.
func tailWindow(closes []float64, window int) []float64 {
	if window > 0 && len(closes) > window+1 {
		return closes[len(closes)-window-1:]
	}
	return closes
}

// fallback constructs the defined neutral result for an indicator type.
func (g *Gateway) fallback(t Type) Result {
	value := decimal.Zero
	if t == RSI {
		value = rsiNeutral
	}
	return Result{
		Value:      value,
		DataSource: sourceFallback,
		Fallback:   true,
	}
}

// cacheKey builds the memoization key (symbol, type, sorted params).
func cacheKey(req Request) string {
	keys := make([]string, 0, len(req.Params))
	for k := range req.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(req.Symbol)
	sb.WriteByte('|')
	sb.WriteString(string(req.Type))
	for _, k := range keys {
		fmt.Fprintf(&sb, "|%s=%d", k, req.Params[k])
	}
	return sb.String()
}
