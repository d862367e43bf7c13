package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceAppendAndComplete(t *testing.T) {
	tr := New("strat-1", "corr-1")
	assert.Equal(t, "strat-1", tr.StrategyID)
	assert.Equal(t, "corr-1", tr.CorrelationID)
	assert.NotEmpty(t, tr.ID)
	assert.False(t, tr.Completed())

	require.NoError(t, tr.Append(Entry{StepID: "step-1", StepType: "allocation"}))
	require.NoError(t, tr.Append(Entry{StepID: "step-2", StepType: "conditional"}))
	require.NoError(t, tr.Complete(true, ""))

	assert.True(t, tr.Completed())
	assert.True(t, tr.Success())
	assert.Empty(t, tr.ErrorMessage())
	assert.Len(t, tr.Entries(), 2)
}

func TestTraceCompleteOnlyOnce(t *testing.T) {
	tr := New("strat-1", "corr-1")
	require.NoError(t, tr.Complete(false, "boom"))

	// The terminal state is set exactly once; a second transition fails and
	// does not overwrite the first.
	require.Error(t, tr.Complete(true, ""))
	assert.False(t, tr.Success())
	assert.Equal(t, "boom", tr.ErrorMessage())
}

func TestTraceRejectsAppendAfterComplete(t *testing.T) {
	tr := New("strat-1", "corr-1")
	require.NoError(t, tr.Complete(true, ""))
	require.Error(t, tr.Append(Entry{StepID: "late"}))
	assert.Empty(t, tr.Entries())
}

func TestTraceEntriesAreCopied(t *testing.T) {
	tr := New("strat-1", "corr-1")
	require.NoError(t, tr.Append(Entry{StepID: "step-1"}))

	entries := tr.Entries()
	entries[0].StepID = "mutated"
	assert.Equal(t, "step-1", tr.Entries()[0].StepID)
}
