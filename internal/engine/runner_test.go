package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/maestro/internal/marketdata"
)

func writeStrategy(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))
	return path
}

func TestRunnerCombinesInDeclaredOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeStrategy(t, dir, "a.clj", `(asset "AAPL")`),
		writeStrategy(t, dir, "b.clj", `(asset "MSFT")`),
	}

	eng := newTestEngine(marketdata.NewFixtureProvider(), nil)
	runner := NewRunner(eng, 4, zerolog.Nop())

	combined, results := runner.EvaluateAll(context.Background(), paths)
	require.Len(t, results, 2)
	assert.Equal(t, paths[0], results[0].Path)
	assert.Equal(t, paths[1], results[1].Path)

	// Each successful file contributes an equal share; merge order follows
	// the declared file order, so AAPL always precedes MSFT.
	assert.Equal(t, []string{"AAPL", "MSFT"}, combined.Symbols())
	assert.Equal(t, "0.5", combined.Weight("AAPL").String())
	assert.Equal(t, "0.5", combined.Weight("MSFT").String())
}

func TestRunnerIsReproducibleAcrossSchedules(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, s := range []struct{ name, symbol string }{
		{"s1.clj", "A"}, {"s2.clj", "B"}, {"s3.clj", "C"}, {"s4.clj", "D"},
	} {
		paths = append(paths, writeStrategy(t, dir, s.name, `(asset "`+s.symbol+`")`))
	}

	eng := newTestEngine(marketdata.NewFixtureProvider(), nil)

	// Different worker counts schedule completions differently; the combined
	// symbol order must not change.
	serial := NewRunner(eng, 1, zerolog.Nop())
	parallel := NewRunner(eng, 4, zerolog.Nop())

	combined1, _ := serial.EvaluateAll(context.Background(), paths)
	combined2, _ := parallel.EvaluateAll(context.Background(), paths)
	assert.Equal(t, combined1.Symbols(), combined2.Symbols())
}

func TestRunnerExcludesFailedStrategies(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeStrategy(t, dir, "good.clj", `(asset "SPY")`),
		writeStrategy(t, dir, "bad.clj", `(asset "SPY"`), // unclosed paren
	}

	eng := newTestEngine(marketdata.NewFixtureProvider(), nil)
	runner := NewRunner(eng, 2, zerolog.Nop())

	combined, results := runner.EvaluateAll(context.Background(), paths)
	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)

	assert.Equal(t, []string{"SPY"}, combined.Symbols())
	assert.Equal(t, "1", combined.Weight("SPY").String())
}

func TestRunnerAllFailedFallsBackToCash(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeStrategy(t, dir, "bad.clj", `)`)}

	eng := newTestEngine(marketdata.NewFixtureProvider(), nil)
	runner := NewRunner(eng, 1, zerolog.Nop())

	combined, results := runner.EvaluateAll(context.Background(), paths)
	require.Error(t, results[0].Err)
	assert.True(t, combined.IsCashOnly())
}
