package dsl

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/aristath/maestro/internal/indicators"
	"github.com/aristath/maestro/internal/portfolio"
)

var one = decimal.NewFromInt(1)

func registerWeightOps(r *Registry) {
	r.register("weight-equal", opWeightEqual)
	r.register("weight-specified", opWeightSpecified)
	r.register("weight-inverse-volatility", opWeightInverseVolatility)
	r.register("filter", opFilter)
}

// opWeightEqual flattens every argument into a deduplicated, order-preserving
// list of leaf symbols and assigns each the weight 1/N.
func opWeightEqual(e *Evaluator, op string, args []*Node) (Value, error) {
	seen := make(map[string]bool)
	var symbols []string
	for _, arg := range args {
		v, err := e.Eval(arg)
		if err != nil {
			return Value{}, err
		}
		collectSymbols(v, seen, &symbols)
	}

	f := portfolio.NewFragment(op)
	if len(symbols) > 0 {
		share := one.Div(decimal.NewFromInt(int64(len(symbols))))
		for _, symbol := range symbols {
			f.Add(symbol, share)
		}
	}

	e.record("allocation", "equal weight over symbols", nil, map[string]any{
		"symbols": f.Symbols(),
		"count":   f.Len(),
	})
	return FragmentVal(f), nil
}

// opWeightSpecified takes alternating weight and asset arguments. A bare
// symbol counts as weight 1.0 on that symbol; a fragment is renormalized to
// sum 1.0 and then scaled by the pair's weight. Contributions for the same
// symbol across pairs are summed.
func opWeightSpecified(e *Evaluator, op string, args []*Node) (Value, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return Value{}, newEvalError(op, "expected non-empty weight/asset pairs, got %d arguments", len(args))
	}

	f := portfolio.NewFragment(op)
	for i := 0; i < len(args); i += 2 {
		weightVal, err := e.Eval(args[i])
		if err != nil {
			return Value{}, err
		}
		if weightVal.Kind != ValNumber {
			return Value{}, newEvalError(op, "weight must be a number, got %s", weightVal.Describe())
		}
		weight := weightVal.Num

		assetVal, err := e.Eval(args[i+1])
		if err != nil {
			return Value{}, err
		}
		switch assetVal.Kind {
		case ValString:
			if assetVal.Str == "" {
				return Value{}, newEvalError(op, "asset symbol is empty")
			}
			f.Add(assetVal.Str, weight)
		case ValFragment:
			if assetVal.Fragment == nil {
				return Value{}, newEvalError(op, "asset fragment is empty")
			}
			f.Merge(assetVal.Fragment.Normalized().Scaled(weight))
		default:
			return Value{}, newEvalError(op, "asset must be a symbol or fragment, got %s", assetVal.Describe())
		}
	}

	e.record("allocation", "specified weights", nil, map[string]any{
		"symbols": f.Symbols(),
	})
	return FragmentVal(f), nil
}

// opWeightInverseVolatility weights each collected symbol proportionally to
// the inverse of its volatility over the given window, normalized to sum
// 1.0. Symbols whose volatility is unobtainable are skipped entirely, never
// defaulted to zero-weight entries.
func opWeightInverseVolatility(e *Evaluator, op string, args []*Node) (Value, error) {
	if len(args) < 2 {
		return Value{}, newEvalError(op, "expected (window assets...), got %d arguments", len(args))
	}

	windowVal, err := e.Eval(args[0])
	if err != nil {
		return Value{}, err
	}
	if windowVal.Kind != ValNumber {
		return Value{}, newEvalError(op, "window must be a number, got %s", windowVal.Describe())
	}
	window := int(windowVal.Num.IntPart())
	if window < 2 {
		return Value{}, newEvalError(op, "window must be at least 2, got %d", window)
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, arg := range args[1:] {
		v, err := e.Eval(arg)
		if err != nil {
			return Value{}, err
		}
		collectSymbols(v, seen, &symbols)
	}

	inverses := make(map[string]decimal.Decimal)
	var kept, skipped []string
	total := decimal.Zero
	for _, symbol := range symbols {
		result, err := e.gateway.Get(e.ctx, indicators.Request{
			Symbol: symbol,
			Type:   indicators.Volatility,
			Params: map[string]int{"window": window},
		})
		if err != nil {
			return Value{}, newEvalError(op, "volatility lookup for %s: %v", symbol, err)
		}
		if result.Fallback || result.Value.Sign() <= 0 {
			skipped = append(skipped, symbol)
			continue
		}
		inv := one.Div(result.Value)
		inverses[symbol] = inv
		total = total.Add(inv)
		kept = append(kept, symbol)
	}

	f := portfolio.NewFragment(op)
	if !total.IsZero() {
		for _, symbol := range kept {
			f.Add(symbol, inverses[symbol].Div(total))
		}
	}

	e.record("allocation", "inverse volatility weights",
		map[string]any{"window": window, "candidates": symbols},
		map[string]any{"symbols": kept, "skipped": skipped})
	return FragmentVal(f), nil
}

// scoredCandidate pairs a symbol with its indicator score for filter ranking.
type scoredCandidate struct {
	symbol string
	score  decimal.Decimal
}

// opFilter ranks candidate symbols by an indicator expression and keeps the
// top or bottom N, equally weighted. A candidate whose score cannot be
// evaluated is excluded from the ranking, never propagated as a failure and
// never neutral-defaulted into the selected set.
func opFilter(e *Evaluator, op string, args []*Node) (Value, error) {
	if len(args) != 3 {
		return Value{}, newEvalError(op, "expected (indicator selector assets), got %d arguments", len(args))
	}
	indicatorExpr, selectorExpr, assetsExpr := args[0], args[1], args[2]

	top, count, err := parseSelector(selectorExpr)
	if err != nil {
		return Value{}, err
	}

	assetsVal, err := e.Eval(assetsExpr)
	if err != nil {
		return Value{}, err
	}
	seen := make(map[string]bool)
	var candidates []string
	collectSymbols(assetsVal, seen, &candidates)

	var scored []scoredCandidate
	var excluded []string
	for _, symbol := range candidates {
		v, err := e.withSubject(symbol, func() (Value, error) {
			return e.Eval(indicatorExpr)
		})
		if err != nil || v.Kind != ValNumber {
			// One broken candidate must not abort the whole filter.
			e.log.Debug().Str("symbol", symbol).AnErr("cause", err).
				Msg("Candidate excluded from filter")
			excluded = append(excluded, symbol)
			continue
		}
		scored = append(scored, scoredCandidate{symbol: symbol, score: v.Num})
	}

	// Stable sort keeps the declared candidate order on score ties.
	sort.SliceStable(scored, func(i, j int) bool {
		if top {
			return scored[i].score.Cmp(scored[j].score) > 0
		}
		return scored[i].score.Cmp(scored[j].score) < 0
	})

	if count > len(scored) {
		count = len(scored)
	}
	selected := scored[:count]

	f := portfolio.NewFragment(op)
	if len(selected) > 0 {
		share := one.Div(decimal.NewFromInt(int64(len(selected))))
		for _, c := range selected {
			f.Add(c.symbol, share)
		}
	}

	scores := make(map[string]any, len(scored))
	for _, c := range scored {
		scores[c.symbol] = c.score.String()
	}
	e.record("filter", "filter "+selectorExpr.String(),
		map[string]any{"candidates": candidates, "scores": scores, "excluded": excluded},
		map[string]any{"selected": f.Symbols()})
	return FragmentVal(f), nil
}

// parseSelector reads a (select-top N) or (select-bottom N) form
// structurally; the selector is part of filter's grammar, not an operator.
func parseSelector(node *Node) (top bool, count int, err error) {
	if node.Kind != NodeList || len(node.Children) != 2 {
		return false, 0, newEvalError("filter", "selector must be (select-top N) or (select-bottom N)")
	}
	head, arg := node.Children[0], node.Children[1]
	if arg.Kind != NodeNumber {
		return false, 0, newEvalError("filter", "selector count must be a number")
	}
	count = int(arg.Num.IntPart())
	if count < 1 {
		return false, 0, newEvalError("filter", "selector count must be positive, got %d", count)
	}

	switch {
	case head.IsSymbol("select-top"):
		return true, count, nil
	case head.IsSymbol("select-bottom"):
		return false, count, nil
	default:
		return false, 0, newEvalError("filter", "unknown selector %s", head.String())
	}
}
