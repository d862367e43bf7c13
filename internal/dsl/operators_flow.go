package dsl

import "github.com/aristath/maestro/internal/portfolio"

func registerFlowOps(r *Registry) {
	r.register("defsymphony", opDefsymphony)
	r.register("asset", opAsset)
	r.register("if", opIf)
	r.register("group", opGroup)
	r.register(">", opCompare)
	r.register("<", opCompare)
	r.register(">=", opCompare)
	r.register("<=", opCompare)
	r.register("=", opCompare)
}

// opDefsymphony evaluates and returns the body only. Name and config are
// documentation; they are never evaluated for side effects.
func opDefsymphony(e *Evaluator, op string, args []*Node) (Value, error) {
	if len(args) != 3 {
		return Value{}, newEvalError(op, "expected (name config body), got %d arguments", len(args))
	}

	name := ""
	if args[0].Kind == NodeString {
		name = args[0].Str
	}
	e.record("symphony", "evaluating symphony "+name, map[string]any{"name": name}, nil)

	return e.Eval(args[2])
}

// opAsset resolves its argument to a ticker string.
func opAsset(e *Evaluator, op string, args []*Node) (Value, error) {
	if len(args) < 1 {
		return Value{}, newEvalError(op, "expected a symbol argument")
	}
	v, err := e.Eval(args[0])
	if err != nil {
		return Value{}, err
	}
	if v.Kind != ValString || v.Str == "" {
		return Value{}, newEvalError(op, "argument must be a symbol string, got %s", v.Describe())
	}
	return v, nil
}

// opIf evaluates the condition and exactly one branch. The untaken branch's
// side effects, including indicator lookups, never occur. A missing else
// branch yields the neutral empty value.
func opIf(e *Evaluator, op string, args []*Node) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return Value{}, newEvalError(op, "expected (condition then else?), got %d arguments", len(args))
	}

	cond, err := e.Eval(args[0])
	if err != nil {
		return Value{}, err
	}
	taken := cond.Truthy()

	branch := "else"
	if taken {
		branch = "then"
	}
	e.record("conditional", "condition "+args[0].String(),
		map[string]any{"condition": cond.Describe()},
		map[string]any{"outcome": taken, "branch": branch})

	if taken {
		return e.Eval(args[1])
	}
	if len(args) == 3 {
		return e.Eval(args[2])
	}
	return EmptyVal(), nil
}

// opGroup evaluates each body expression in order. Results that bear weights
// are merged by symbol-wise summation into one fragment. When no body
// expression produced weights, the last body expression's result is returned
// unchanged (pass-through), keeping group transparent for condition-only
// bodies.
func opGroup(e *Evaluator, op string, args []*Node) (Value, error) {
	if len(args) < 2 {
		return Value{}, newEvalError(op, "expected (name body...), got %d arguments", len(args))
	}

	name := ""
	if args[0].Kind == NodeString {
		name = args[0].Str
	}
	body := args[1:]

	merged := portfolio.NewFragment(op)
	contributions := 0
	var last Value
	for _, expr := range body {
		v, err := e.Eval(expr)
		if err != nil {
			return Value{}, err
		}
		last = v
		if contrib := weightBearing(v, op); contrib != nil {
			merged.Merge(contrib)
			contributions++
		}
	}

	if contributions == 0 {
		e.record("group", "group "+name+" (pass-through)", nil,
			map[string]any{"result": last.Describe()})
		return last, nil
	}

	e.record("group", "group "+name, nil, map[string]any{
		"merged":  contributions,
		"symbols": merged.Symbols(),
	})
	return FragmentVal(merged), nil
}

// opCompare implements > < >= <= = with exact decimal semantics so strategy
// thresholds (e.g. RSI > 79) carry no binary-float rounding artifacts.
// = additionally compares two strings for equality.
func opCompare(e *Evaluator, op string, args []*Node) (Value, error) {
	if len(args) != 2 {
		return Value{}, newEvalError(op, "expected exactly 2 arguments, got %d", len(args))
	}

	left, err := e.Eval(args[0])
	if err != nil {
		return Value{}, err
	}
	right, err := e.Eval(args[1])
	if err != nil {
		return Value{}, err
	}

	if op == "=" && left.Kind == ValString && right.Kind == ValString {
		return BoolVal(left.Str == right.Str), nil
	}
	if left.Kind != ValNumber || right.Kind != ValNumber {
		return Value{}, newEvalError(op, "arguments must be numbers, got %s and %s",
			left.Describe(), right.Describe())
	}

	cmp := left.Num.Cmp(right.Num)
	switch op {
	case ">":
		return BoolVal(cmp > 0), nil
	case "<":
		return BoolVal(cmp < 0), nil
	case ">=":
		return BoolVal(cmp >= 0), nil
	case "<=":
		return BoolVal(cmp <= 0), nil
	case "=":
		return BoolVal(cmp == 0), nil
	default:
		return Value{}, newEvalError(op, "unknown comparison")
	}
}
