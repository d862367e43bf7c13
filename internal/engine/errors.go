package engine

import (
	"errors"
	"fmt"

	"github.com/aristath/maestro/internal/dsl"
)

// Error wraps any failure of one strategy evaluation with the context a
// caller needs: which file, which strategy, which correlation id. The
// wrapped cause stays reachable for errors.As, so parse failures,
// evaluation failures, and engine/I/O failures remain distinguishable.
type Error struct {
	StrategyID    string
	Path          string
	CorrelationID string
	Err           error
}

func (e *Error) Error() string {
	where := e.StrategyID
	if e.Path != "" {
		where = e.Path
	}
	return fmt.Sprintf("strategy %s (correlation %s): %v", where, e.CorrelationID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind classifies the wrapped cause: "parse", "evaluation", or "engine".
func (e *Error) Kind() string {
	var parseErr *dsl.ParseError
	if errors.As(e.Err, &parseErr) {
		return "parse"
	}
	var evalErr *dsl.EvalError
	if errors.As(e.Err, &evalErr) {
		return "evaluation"
	}
	return "engine"
}
