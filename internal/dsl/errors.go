package dsl

import "fmt"

// ParseError reports malformed syntax. Position is a rune offset into the
// source, or -1 when no position applies (e.g. empty input).
type ParseError struct {
	Message string
	Pos     int
}

func (e *ParseError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func newParseError(pos int, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Pos: pos}
}

// EvalError reports a semantic failure during evaluation: wrong argument
// count or type for an operator, an unresolvable indicator request, a
// malformed map in argument position. Op names the offending operator.
type EvalError struct {
	Op      string
	Message string
}

func (e *EvalError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("evaluation error in %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("evaluation error: %s", e.Message)
}

func newEvalError(op, format string, args ...any) *EvalError {
	return &EvalError{Op: op, Message: fmt.Sprintf(format, args...)}
}
