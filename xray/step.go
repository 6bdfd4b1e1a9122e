package xray

import (
	"context"
	"time"

	"github.com/Syamgith/decisiontraceX/internal/domain"
	"github.com/Syamgith/decisiontraceX/internal/pkg/metrics"
)

// StepScope wraps one running step plus its owning trace scope, so a failed
// step can poison the trace status before the trace's own exit.
//
// All setters operate on the in-memory step; nothing is persisted until End.
type StepScope struct {
	owner *TraceScope
	step  *domain.Step
	ended bool
}

// ID returns the step ID.
func (s *StepScope) ID() string {
	return s.step.StepID
}

// TraceID returns the owning trace's ID.
func (s *StepScope) TraceID() string {
	return s.step.TraceID
}

// Name returns the step name.
func (s *StepScope) Name() string {
	return s.step.Name
}

// Order returns the step's position within the trace, assigned at creation.
func (s *StepScope) Order() int {
	return s.step.StepOrder
}

// SetInput replaces the step's input wholesale.
func (s *StepScope) SetInput(data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	s.step.Input = data
}

// SetOutput replaces the step's output wholesale.
func (s *StepScope) SetOutput(data map[string]any) {
	s.step.Output = data
}

// SetReasoning sets the free-text reasoning for this step's decision.
func (s *StepScope) SetReasoning(text string) {
	s.step.Reasoning = &text
}

// SetMetadata merges data into the step's metadata. Existing keys are
// retained unless shadowed; this is a union, unlike SetInput/SetOutput.
func (s *StepScope) SetMetadata(data map[string]any) {
	for k, v := range data {
		s.step.Metadata[k] = v
	}
}

// AddEvaluation appends an evaluation record to metadata["evaluations"],
// initializing the sequence on first use. Repeated calls build a growing
// audit log within one step.
func (s *StepScope) AddEvaluation(itemID string, itemData map[string]any, filters []map[string]any, qualified bool, reasoning string) {
	evaluations, _ := s.step.Metadata["evaluations"].([]any)

	record := map[string]any{
		"item_id":   itemID,
		"item_data": itemData,
		"filters":   filters,
		"qualified": qualified,
		"reasoning": reasoning,
	}

	s.step.Metadata["evaluations"] = append(evaluations, record)
}

// ModelCall describes one model invocation for AddModelCallMetadata.
// TokensUsed and Temperature are optional; Extra keys are merged into the
// record and may shadow the standard ones.
type ModelCall struct {
	Model       string
	TokensUsed  *int64
	Temperature *float64
	Extra       map[string]any
}

// AddModelCallMetadata sets metadata["llm"] to the model-call record,
// overwriting any prior value.
func (s *StepScope) AddModelCallMetadata(call ModelCall) {
	record := map[string]any{
		"model":       call.Model,
		"tokens_used": nil,
		"temperature": nil,
	}
	if call.TokensUsed != nil {
		record["tokens_used"] = *call.TokensUsed
	}
	if call.Temperature != nil {
		record["temperature"] = *call.Temperature
	}
	for k, v := range call.Extra {
		record[k] = v
	}

	s.step.Metadata["llm"] = record
}

// End closes the step scope: records end time and duration, resolves the
// final status, persists the step, then re-persists the owning trace so its
// status reflects this step without waiting for the trace's own exit.
//
// A non-nil cause marks the step failed, stores the failure text, and
// forces the owning trace's in-memory status to failed immediately. cause
// itself is never swallowed or returned; the return value reports only
// persistence problems. End is idempotent.
func (s *StepScope) End(ctx context.Context, cause error) error {
	if s.ended {
		return nil
	}
	s.ended = true

	now := time.Now().UTC()
	s.step.EndTime = &now
	duration := now.Sub(s.step.StartTime).Milliseconds()
	s.step.DurationMs = &duration

	if cause != nil {
		s.step.Status = domain.StatusFailed
		msg := cause.Error()
		s.step.Error = &msg
		s.owner.trace.Status = domain.StatusFailed
	} else {
		s.step.Status = domain.StatusCompleted
	}

	metrics.RecordStep(string(s.step.Status))

	if err := s.owner.x.store.SaveStep(ctx, s.step); err != nil {
		return err
	}
	return s.owner.x.store.SaveTrace(ctx, s.owner.trace)
}
