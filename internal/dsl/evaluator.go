package dsl

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/maestro/internal/indicators"
	"github.com/aristath/maestro/internal/trace"
)

// Evaluator walks one AST depth-first, resolving symbols, dispatching
// registered operators, and appending trace entries. One evaluator serves
// exactly one evaluation pass; the registry it references is shared and
// read-only.
type Evaluator struct {
	ctx     context.Context
	reg     *Registry
	gateway *indicators.Gateway
	trace   *trace.Trace
	log     zerolog.Logger

	// subject is the ticker substituted into indicator expressions inside
	// filter; empty outside a filter candidate evaluation.
	subject string
	steps   int
}

// NewEvaluator creates an evaluator for a single evaluation pass.
func NewEvaluator(ctx context.Context, reg *Registry, gateway *indicators.Gateway, tr *trace.Trace, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		ctx:     ctx,
		reg:     reg,
		gateway: gateway,
		trace:   tr,
		log:     log.With().Str("component", "evaluator").Logger(),
	}
}

// Eval resolves one node to a value.
//
// Resolution rules:
//   - number/string atoms evaluate to their literal value
//   - a bare symbol evaluates to its name as a string (tickers and keywords
//     passed as data), even when an operator of that name exists
//   - an empty list evaluates to an empty list value
//   - a list whose head is a registered operator symbol dispatches to that
//     operator with the remaining children unevaluated
//   - any other list evaluates every child independently and collects the
//     results (literal vectors of tickers need no leading operator)
func (e *Evaluator) Eval(node *Node) (Value, error) {
	switch node.Kind {
	case NodeNumber:
		return NumberVal(node.Num), nil
	case NodeString:
		return StringVal(node.Str), nil
	case NodeSymbol:
		return StringVal(node.Str), nil
	case NodeMap:
		return e.evalDataList(node)
	case NodeList:
		if len(node.Children) == 0 {
			return EmptyVal(), nil
		}
		head := node.Children[0]
		if head.Kind == NodeSymbol {
			if fn, ok := e.reg.Lookup(head.Str); ok {
				return fn(e, head.Str, node.Children[1:])
			}
		}
		return e.evalDataList(node)
	default:
		return Value{}, newEvalError("", "unknown node kind %d", node.Kind)
	}
}

func (e *Evaluator) evalDataList(node *Node) (Value, error) {
	items := make([]Value, 0, len(node.Children))
	for _, child := range node.Children {
		v, err := e.Eval(child)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	return ListVal(items), nil
}

// record appends a trace entry for an operator step. Trace failures are
// logged, never propagated: tracing must not alter evaluation outcomes.
func (e *Evaluator) record(stepType, description string, inputs, outputs map[string]any) {
	if e.trace == nil {
		return
	}
	e.steps++
	entry := trace.Entry{
		StepID:      fmt.Sprintf("step-%d", e.steps),
		StepType:    stepType,
		Description: description,
		Inputs:      inputs,
		Outputs:     outputs,
	}
	if err := e.trace.Append(entry); err != nil {
		e.log.Warn().Err(err).Str("step_type", stepType).Msg("Failed to append trace entry")
	}
}

// withSubject runs fn with the filter substitution subject set, restoring
// the previous subject afterwards.
func (e *Evaluator) withSubject(symbol string, fn func() (Value, error)) (Value, error) {
	prev := e.subject
	e.subject = symbol
	defer func() { e.subject = prev }()
	return fn()
}
