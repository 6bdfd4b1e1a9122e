// Package testutil provides shared fixtures for repository, SDK, and
// service tests.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Syamgith/decisiontraceX/internal/domain"
	"github.com/Syamgith/decisiontraceX/internal/repository/sqlite"
)

// NewMemoryStore opens an in-memory SQLite store that is closed when the
// test finishes.
func NewMemoryStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

// CompletedTrace builds a completed trace with the given name and no steps.
func CompletedTrace(name string) *domain.Trace {
	trace := domain.NewTrace(name, map[string]any{"source": "test"})
	end := trace.StartTime.Add(25 * time.Millisecond)
	duration := end.Sub(trace.StartTime).Milliseconds()
	trace.EndTime = &end
	trace.DurationMs = &duration
	trace.Status = domain.StatusCompleted
	return trace
}

// FailedTrace builds a failed trace with the given name and no steps.
func FailedTrace(name string) *domain.Trace {
	trace := CompletedTrace(name)
	trace.Status = domain.StatusFailed
	return trace
}

// CompletedStep builds a completed step owned by traceID at the given order.
func CompletedStep(traceID string, order int) *domain.Step {
	step := domain.NewStep(traceID, "step", order)
	step.Input = map[string]any{"q": float64(order)}
	step.Output = map[string]any{"r": float64(order + 1)}
	end := step.StartTime.Add(10 * time.Millisecond)
	duration := end.Sub(step.StartTime).Milliseconds()
	step.EndTime = &end
	step.DurationMs = &duration
	step.Status = domain.StatusCompleted
	return step
}
