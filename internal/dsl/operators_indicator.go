package dsl

import (
	"github.com/aristath/maestro/internal/indicators"
)

func registerIndicatorOps(r *Registry) {
	for _, t := range []indicators.Type{
		indicators.RSI,
		indicators.CurrentPrice,
		indicators.MovingAveragePrice,
		indicators.MovingAverageReturn,
		indicators.CumulativeReturn,
		indicators.Volatility,
		indicators.MaxDrawdown,
		indicators.StdDevReturn,
	} {
		r.register(string(t), indicatorOp(t))
	}
}

// indicatorOp builds the operator function for one indicator type. The
// operator resolves its subject symbol and parameters, delegates to the
// gateway, and returns the numeric result.
func indicatorOp(t indicators.Type) OpFunc {
	return func(e *Evaluator, op string, args []*Node) (Value, error) {
		symbol, params, err := parseIndicatorArgs(e, op, args)
		if err != nil {
			return Value{}, err
		}
		if symbol == "" {
			symbol = e.subject
		}
		if symbol == "" {
			return Value{}, newEvalError(op, "no subject symbol: pass a ticker or use inside filter")
		}

		result, err := e.gateway.Get(e.ctx, indicators.Request{
			Symbol: symbol,
			Type:   t,
			Params: params,
		})
		if err != nil {
			return Value{}, newEvalError(op, "%v", err)
		}
		return NumberVal(result.Value), nil
	}
}

// parseIndicatorArgs accepts an optional symbol expression and an optional
// {:param value} map, in either order. Map literals are read structurally:
// keyword keys, integer values.
func parseIndicatorArgs(e *Evaluator, op string, args []*Node) (string, map[string]int, error) {
	symbol := ""
	params := make(map[string]int)

	for _, arg := range args {
		if arg.Kind == NodeMap {
			if err := readParams(op, arg, params); err != nil {
				return "", nil, err
			}
			continue
		}

		v, err := e.Eval(arg)
		if err != nil {
			return "", nil, err
		}
		if v.Kind != ValString || v.Str == "" {
			return "", nil, newEvalError(op, "argument must be a symbol or parameter map, got %s", v.Describe())
		}
		if symbol != "" {
			return "", nil, newEvalError(op, "multiple subject symbols: %s and %s", symbol, v.Str)
		}
		symbol = v.Str
	}

	return symbol, params, nil
}

func readParams(op string, m *Node, params map[string]int) error {
	// Parser guarantees an even child count for map literals.
	for i := 0; i+1 < len(m.Children); i += 2 {
		key, value := m.Children[i], m.Children[i+1]
		if key.Kind != NodeSymbol || len(key.Str) < 2 || key.Str[0] != ':' {
			return newEvalError(op, "parameter key must be a keyword, got %s", key.String())
		}
		if value.Kind != NodeNumber {
			return newEvalError(op, "parameter %s must be a number, got %s", key.Str, value.String())
		}
		params[key.Str[1:]] = int(value.Num.IntPart())
	}
	return nil
}
