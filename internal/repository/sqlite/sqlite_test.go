package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Syamgith/decisiontraceX/internal/domain"
	apperrors "github.com/Syamgith/decisiontraceX/internal/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func completedTrace(name string) *domain.Trace {
	trace := domain.NewTrace(name, map[string]any{"source": "test"})
	end := trace.StartTime.Add(25 * time.Millisecond)
	duration := end.Sub(trace.StartTime).Milliseconds()
	trace.EndTime = &end
	trace.DurationMs = &duration
	trace.Status = domain.StatusCompleted
	return trace
}

func TestSaveTrace_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trace := completedTrace("pipeline-x")
	trace.Metadata = map[string]any{"env": "test", "attempt": float64(2)}
	require.NoError(t, store.SaveTrace(ctx, trace))

	got, err := store.GetTrace(ctx, trace.TraceID)
	require.NoError(t, err)

	assert.Equal(t, trace.TraceID, got.TraceID)
	assert.Equal(t, "pipeline-x", got.Name)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, trace.Metadata, got.Metadata)
	require.NotNil(t, got.DurationMs)
	assert.Equal(t, *trace.DurationMs, *got.DurationMs)
	assert.True(t, trace.StartTime.Equal(got.StartTime))
	require.NotNil(t, got.EndTime)
	assert.True(t, trace.EndTime.Equal(*got.EndTime))
	assert.Empty(t, got.Steps)
}

func TestSaveTrace_RunningTraceHasNoEnd(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trace := domain.NewTrace("in-flight", nil)
	require.NoError(t, store.SaveTrace(ctx, trace))

	got, err := store.GetTrace(ctx, trace.TraceID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, got.Status)
	assert.Nil(t, got.EndTime)
	assert.Nil(t, got.DurationMs)
}

func TestGetTrace_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetTrace(context.Background(), "no-such-trace")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, apperrors.IsStorage(err))
}

func TestSaveStep_RoundtripAndOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trace := domain.NewTrace("ordered", nil)
	require.NoError(t, store.SaveTrace(ctx, trace))

	// Insert out of order; retrieval must sort by step_order.
	for _, order := range []int{2, 0, 1} {
		step := domain.NewStep(trace.TraceID, "step", order)
		step.Input = map[string]any{"q": float64(order)}
		require.NoError(t, store.SaveStep(ctx, step))
	}

	got, err := store.GetTrace(ctx, trace.TraceID)
	require.NoError(t, err)
	require.Len(t, got.Steps, 3)
	for i, step := range got.Steps {
		assert.Equal(t, i, step.StepOrder)
		assert.Equal(t, map[string]any{"q": float64(i)}, step.Input)
	}
}

func TestSaveStep_AllFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trace := domain.NewTrace("full-step", nil)
	require.NoError(t, store.SaveTrace(ctx, trace))

	step := domain.NewStep(trace.TraceID, "llm-call", 0)
	step.Input = map[string]any{"prompt": "hello"}
	step.Output = map[string]any{"completion": "world"}
	reasoning := "model chose the greeting"
	step.Reasoning = &reasoning
	step.Metadata = map[string]any{
		"llm": map[string]any{"model": "gpt-4o-mini", "tokens_used": float64(12)},
	}
	end := step.StartTime.Add(40 * time.Millisecond)
	duration := end.Sub(step.StartTime).Milliseconds()
	step.EndTime = &end
	step.DurationMs = &duration
	step.Status = domain.StatusFailed
	errMsg := "rate limited"
	step.Error = &errMsg
	require.NoError(t, store.SaveStep(ctx, step))

	got, err := store.GetTrace(ctx, trace.TraceID)
	require.NoError(t, err)
	require.Len(t, got.Steps, 1)

	saved := got.Steps[0]
	assert.Equal(t, step.StepID, saved.StepID)
	assert.Equal(t, map[string]any{"prompt": "hello"}, saved.Input)
	assert.Equal(t, map[string]any{"completion": "world"}, saved.Output)
	require.NotNil(t, saved.Reasoning)
	assert.Equal(t, reasoning, *saved.Reasoning)
	assert.Equal(t, step.Metadata, saved.Metadata)
	assert.Equal(t, domain.StatusFailed, saved.Status)
	require.NotNil(t, saved.Error)
	assert.Equal(t, errMsg, *saved.Error)
	require.NotNil(t, saved.DurationMs)
	assert.Equal(t, duration, *saved.DurationMs)
}

func TestSaveStep_IdempotentResave(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trace := domain.NewTrace("idempotent", nil)
	require.NoError(t, store.SaveTrace(ctx, trace))

	step := domain.NewStep(trace.TraceID, "step", 0)
	require.NoError(t, store.SaveStep(ctx, step))
	require.NoError(t, store.SaveStep(ctx, step))

	got, err := store.GetTrace(ctx, trace.TraceID)
	require.NoError(t, err)
	assert.Len(t, got.Steps, 1)
}

func TestSaveStep_LastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trace := domain.NewTrace("rewrite", nil)
	require.NoError(t, store.SaveTrace(ctx, trace))

	step := domain.NewStep(trace.TraceID, "step", 0)
	step.Input = map[string]any{"v": float64(1)}
	require.NoError(t, store.SaveStep(ctx, step))

	step.Input = map[string]any{"v": float64(2)}
	step.Status = domain.StatusCompleted
	require.NoError(t, store.SaveStep(ctx, step))

	got, err := store.GetTrace(ctx, trace.TraceID)
	require.NoError(t, err)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, map[string]any{"v": float64(2)}, got.Steps[0].Input)
	assert.Equal(t, domain.StatusCompleted, got.Steps[0].Status)
}

func TestSaveTrace_ResaveDoesNotTouchSteps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trace := domain.NewTrace("resave", nil)
	require.NoError(t, store.SaveTrace(ctx, trace))
	require.NoError(t, store.SaveStep(ctx, domain.NewStep(trace.TraceID, "step", 0)))

	// Re-saving the parent must not cascade into the child rows.
	trace.Status = domain.StatusCompleted
	require.NoError(t, store.SaveTrace(ctx, trace))

	got, err := store.GetTrace(ctx, trace.TraceID)
	require.NoError(t, err)
	assert.Len(t, got.Steps, 1)
}

func TestGetAllTraces_MostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"first", "second", "third"} {
		trace := domain.NewTrace(name, nil)
		require.NoError(t, store.SaveTrace(ctx, trace))
		ids = append(ids, trace.TraceID)
	}

	traces, err := store.GetAllTraces(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, traces, 3)
	assert.Equal(t, ids[2], traces[0].TraceID)
	assert.Equal(t, ids[1], traces[1].TraceID)
	assert.Equal(t, ids[0], traces[2].TraceID)
}

func TestGetAllTraces_ResaveKeepsCreationOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := domain.NewTrace("older", nil)
	require.NoError(t, store.SaveTrace(ctx, older))
	newer := domain.NewTrace("newer", nil)
	require.NoError(t, store.SaveTrace(ctx, newer))

	// Updating the older trace must not promote it to "most recent".
	older.Status = domain.StatusCompleted
	require.NoError(t, store.SaveTrace(ctx, older))

	traces, err := store.GetAllTraces(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, newer.TraceID, traces[0].TraceID)
	assert.Equal(t, older.TraceID, traces[1].TraceID)
}

func TestGetAllTraces_StatusFilterAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	completed := completedTrace("done")
	require.NoError(t, store.SaveTrace(ctx, completed))

	failed := completedTrace("broken")
	failed.Status = domain.StatusFailed
	require.NoError(t, store.SaveTrace(ctx, failed))

	got, err := store.GetAllTraces(ctx, 1, domain.StatusFailed)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, failed.TraceID, got[0].TraceID)

	got, err = store.GetAllTraces(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGetAllTraces_EmptyStoreIsEmptySlice(t *testing.T) {
	store := newTestStore(t)

	traces, err := store.GetAllTraces(context.Background(), 100, "")
	require.NoError(t, err)
	assert.NotNil(t, traces)
	assert.Empty(t, traces)

	traces, err = store.GetAllTraces(context.Background(), 100, domain.StatusFailed)
	require.NoError(t, err)
	assert.Empty(t, traces)
}

func TestGetAllTraces_HydratesSteps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trace := domain.NewTrace("hydrated", nil)
	require.NoError(t, store.SaveTrace(ctx, trace))
	require.NoError(t, store.SaveStep(ctx, domain.NewStep(trace.TraceID, "a", 0)))
	require.NoError(t, store.SaveStep(ctx, domain.NewStep(trace.TraceID, "b", 1)))

	traces, err := store.GetAllTraces(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, traces, 1)
	require.Len(t, traces[0].Steps, 2)
	assert.Equal(t, "a", traces[0].Steps[0].Name)
	assert.Equal(t, "b", traces[0].Steps[1].Name)
}

func TestPing(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestClose_Idempotent(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
