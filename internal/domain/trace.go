package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a trace or step.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Step represents a single decision point within a trace.
//
// Core fields are general-purpose; domain-specific data goes in Metadata.
type Step struct {
	StepID     string         `json:"step_id"`
	TraceID    string         `json:"trace_id"`
	Name       string         `json:"name"`
	Input      map[string]any `json:"input"`
	Output     map[string]any `json:"output,omitempty"`
	Reasoning  *string        `json:"reasoning,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    *time.Time     `json:"end_time,omitempty"`
	DurationMs *int64         `json:"duration_ms,omitempty"`
	Status     Status         `json:"status"`
	Error      *string        `json:"error,omitempty"`
	StepOrder  int            `json:"step_order"`
}

// Trace represents a complete execution of a multi-step workflow.
//
// Steps is ordered by StepOrder ascending; the order is the execution order.
type Trace struct {
	TraceID    string         `json:"trace_id"`
	Name       string         `json:"name"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    *time.Time     `json:"end_time,omitempty"`
	DurationMs *int64         `json:"duration_ms,omitempty"`
	Steps      []Step         `json:"steps"`
	Metadata   map[string]any `json:"metadata"`
	Status     Status         `json:"status"`
}

// NewTrace constructs a running trace with a fresh identifier.
func NewTrace(name string, metadata map[string]any) *Trace {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &Trace{
		TraceID:   uuid.New().String(),
		Name:      name,
		StartTime: time.Now().UTC(),
		Steps:     []Step{},
		Metadata:  metadata,
		Status:    StatusRunning,
	}
}

// NewStep constructs a running step with a fresh identifier, owned by the
// given trace and placed at the given order.
func NewStep(traceID, name string, order int) *Step {
	return &Step{
		StepID:    uuid.New().String(),
		TraceID:   traceID,
		Name:      name,
		Input:     make(map[string]any),
		Metadata:  make(map[string]any),
		StartTime: time.Now().UTC(),
		Status:    StatusRunning,
		StepOrder: order,
	}
}
