package xray

import (
	"context"
	"time"

	"github.com/Syamgith/decisiontraceX/internal/domain"
	"github.com/Syamgith/decisiontraceX/internal/pkg/metrics"
)

// TraceScope wraps one running trace. It is owned by a single goroutine;
// step scopes are opened serially inside it.
type TraceScope struct {
	x     *XRay
	trace *domain.Trace
	steps []*domain.Step
	ended bool
}

type traceOptions struct {
	metadata map[string]any
}

// TraceOption configures a new trace scope.
type TraceOption func(*traceOptions)

// WithMetadata sets the trace-level metadata.
func WithMetadata(metadata map[string]any) TraceOption {
	return func(o *traceOptions) {
		o.metadata = metadata
	}
}

// StartTrace opens a trace scope and persists the initial running trace
// row, so partially-executed traces are visible to readers immediately.
func (x *XRay) StartTrace(ctx context.Context, name string, opts ...TraceOption) (*TraceScope, error) {
	var o traceOptions
	for _, opt := range opts {
		opt(&o)
	}

	trace := domain.NewTrace(name, o.metadata)
	if err := x.store.SaveTrace(ctx, trace); err != nil {
		return nil, err
	}

	return &TraceScope{x: x, trace: trace}, nil
}

// ID returns the trace ID.
func (t *TraceScope) ID() string {
	return t.trace.TraceID
}

// Name returns the trace name.
func (t *TraceScope) Name() string {
	return t.trace.Name
}

// Status returns the trace's current in-memory status.
func (t *TraceScope) Status() domain.Status {
	return t.trace.Status
}

// StartStep opens a step scope within this trace. The step's order is the
// count of steps already opened; orders are never reused.
func (t *TraceScope) StartStep(name string) *StepScope {
	step := domain.NewStep(t.trace.TraceID, name, len(t.steps))
	t.steps = append(t.steps, step)
	return &StepScope{owner: t, step: step}
}

// Step opens a step scope, runs fn inside it, and closes the scope on every
// exit path. Semantics match XRay.Trace: body error returned unchanged,
// panics recorded and re-raised, close storage errors surfaced only when
// the body succeeded.
func (t *TraceScope) Step(ctx context.Context, name string, fn func(*StepScope) error) error {
	sc := t.StartStep(name)
	return runScoped(ctx, sc.End, t.x.logger, "step", sc.ID(), func() error {
		return fn(sc)
	})
}

// End closes the trace scope: records end time and duration, resolves the
// final status, and persists the final trace row. The status is failed when
// cause is non-nil or any child step failed; otherwise completed. End is
// idempotent; only the first call transitions and writes.
//
// cause is the caller's failure and is never swallowed here; the return
// value reports only persistence problems.
func (t *TraceScope) End(ctx context.Context, cause error) error {
	if t.ended {
		return nil
	}
	t.ended = true

	now := time.Now().UTC()
	t.trace.EndTime = &now
	// Wall-clock adjustment can make this negative; passed through unchanged.
	duration := now.Sub(t.trace.StartTime).Milliseconds()
	t.trace.DurationMs = &duration

	if cause != nil || t.trace.Status == domain.StatusFailed || t.anyStepFailed() {
		t.trace.Status = domain.StatusFailed
	} else {
		t.trace.Status = domain.StatusCompleted
	}

	metrics.RecordTrace(string(t.trace.Status))
	return t.x.store.SaveTrace(ctx, t.trace)
}

func (t *TraceScope) anyStepFailed() bool {
	for _, step := range t.steps {
		if step.Status == domain.StatusFailed {
			return true
		}
	}
	return false
}
