// Package trace provides the append-only audit log of one strategy
// evaluation run. A trace is created at evaluation start, appended to during
// the single evaluation pass, and completed exactly once.
package trace

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one step in the evaluation audit log.
type Entry struct {
	StepID      string         `json:"step_id"`
	StepType    string         `json:"step_type"`
	Description string         `json:"description"`
	Inputs      map[string]any `json:"inputs,omitempty"`
	Outputs     map[string]any `json:"outputs,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Trace is the ordered audit log of one evaluation. It is owned by a single
// evaluation pass and is not safe for concurrent use.
type Trace struct {
	ID            string
	CorrelationID string
	StrategyID    string
	StartedAt     time.Time
	CompletedAt   time.Time

	entries   []Entry
	completed bool
	success   bool
	errMsg    string
}

// New creates an open trace for one evaluation run.
func New(strategyID, correlationID string) *Trace {
	return &Trace{
		ID:            uuid.NewString(),
		CorrelationID: correlationID,
		StrategyID:    strategyID,
		StartedAt:     time.Now().UTC(),
	}
}

// Append adds an entry to the log. Appending to a completed trace is an error.
func (t *Trace) Append(e Entry) error {
	if t.completed {
		return fmt.Errorf("trace %s is already completed", t.ID)
	}
	t.entries = append(t.entries, e)
	return nil
}

// Complete marks the trace's terminal state. It may be called exactly once.
func (t *Trace) Complete(success bool, errMsg string) error {
	if t.completed {
		return fmt.Errorf("trace %s is already completed", t.ID)
	}
	t.completed = true
	t.success = success
	t.errMsg = errMsg
	t.CompletedAt = time.Now().UTC()
	return nil
}

// Entries returns a copy of the ordered log.
func (t *Trace) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Completed reports whether the trace has reached its terminal state.
func (t *Trace) Completed() bool { return t.completed }

// Success reports the terminal outcome. Meaningful only once completed.
func (t *Trace) Success() bool { return t.success }

// ErrorMessage returns the terminal failure message, empty on success.
func (t *Trace) ErrorMessage() string { return t.errMsg }
