package dsl

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aristath/maestro/internal/portfolio"
)

// ValueKind discriminates evaluation results.
type ValueKind int

const (
	ValNumber ValueKind = iota
	ValBool
	ValString
	ValFragment
	ValList
)

// Value is the tagged union produced by evaluating a node: an exact decimal
// number, a boolean, a string (bare symbol or asset ticker), a portfolio
// fragment, or a list of values.
type Value struct {
	Kind     ValueKind
	Num      decimal.Decimal
	Bool     bool
	Str      string
	Fragment *portfolio.Fragment
	List     []Value
}

func NumberVal(d decimal.Decimal) Value       { return Value{Kind: ValNumber, Num: d} }
func BoolVal(b bool) Value                    { return Value{Kind: ValBool, Bool: b} }
func StringVal(s string) Value                { return Value{Kind: ValString, Str: s} }
func FragmentVal(f *portfolio.Fragment) Value { return Value{Kind: ValFragment, Fragment: f} }
func ListVal(items []Value) Value             { return Value{Kind: ValList, List: items} }

// EmptyVal is the neutral value: an empty list.
func EmptyVal() Value { return Value{Kind: ValList} }

// Truthy reports whether the value selects the "then" branch of a
// conditional: true booleans, non-zero numbers, non-empty strings, fragments
// with at least one symbol, and non-empty lists.
func (v Value) Truthy() bool {
	switch v.Kind {
	case ValBool:
		return v.Bool
	case ValNumber:
		return !v.Num.IsZero()
	case ValString:
		return v.Str != ""
	case ValFragment:
		return v.Fragment != nil && v.Fragment.Len() > 0
	case ValList:
		return len(v.List) > 0
	default:
		return false
	}
}

// Describe renders a short human-readable form for trace entries and
// error messages.
func (v Value) Describe() string {
	switch v.Kind {
	case ValNumber:
		return v.Num.String()
	case ValBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValString:
		return v.Str
	case ValFragment:
		if v.Fragment == nil {
			return "fragment()"
		}
		return "fragment(" + strings.Join(v.Fragment.Symbols(), " ") + ")"
	case ValList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.Describe()
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return "<unknown>"
	}
}

// collectSymbols flattens a value into ordered, deduplicated leaf ticker
// symbols: plain strings directly, fragments by their keys, lists
// recursively. Other kinds carry no symbols.
func collectSymbols(v Value, seen map[string]bool, out *[]string) {
	switch v.Kind {
	case ValString:
		if v.Str != "" && !seen[v.Str] {
			seen[v.Str] = true
			*out = append(*out, v.Str)
		}
	case ValFragment:
		if v.Fragment == nil {
			return
		}
		for _, symbol := range v.Fragment.Symbols() {
			if !seen[symbol] {
				seen[symbol] = true
				*out = append(*out, symbol)
			}
		}
	case ValList:
		for _, item := range v.List {
			collectSymbols(item, seen, out)
		}
	}
}

// weightBearing converts a value into a fragment contribution for group
// merging: fragments pass through, a bare string is weight 1.0 on that
// symbol, a list spreads weight equally over its leaf symbols. Returns nil
// when the value carries no weights.
func weightBearing(v Value, sourceStep string) *portfolio.Fragment {
	switch v.Kind {
	case ValFragment:
		if v.Fragment != nil && v.Fragment.Len() > 0 {
			return v.Fragment
		}
		return nil
	case ValString:
		if v.Str == "" {
			return nil
		}
		f := portfolio.NewFragment(sourceStep)
		f.Add(v.Str, decimal.NewFromInt(1))
		return f
	case ValList:
		seen := make(map[string]bool)
		var symbols []string
		collectSymbols(v, seen, &symbols)
		if len(symbols) == 0 {
			return nil
		}
		f := portfolio.NewFragment(sourceStep)
		share := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(symbols))))
		for _, symbol := range symbols {
			f.Add(symbol, share)
		}
		return f
	default:
		return nil
	}
}
