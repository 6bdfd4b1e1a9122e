// Package repository defines the storage contract for traces and steps.
//
// Store is a capability interface: additional backends are alternate
// implementations of the same interface, not subclasses of the SQLite one.
package repository

import (
	"context"

	"github.com/Syamgith/decisiontraceX/internal/domain"
)

// Store persists traces and steps and serves ordered retrieval.
//
// All writes are idempotent upserts keyed by the entity's primary id and
// are durably committed before the call returns; there is no write
// buffering across calls. Implementations must be safe for concurrent use
// so that independent traces can be recorded from different goroutines.
type Store interface {
	// SaveTrace upserts the trace row. Child steps are not touched.
	SaveTrace(ctx context.Context, trace *domain.Trace) error

	// SaveStep upserts the step row. Safe to call repeatedly for the same
	// step; last write wins.
	SaveStep(ctx context.Context, step *domain.Step) error

	// GetTrace returns the trace with all child steps ordered by step_order
	// ascending. Unknown ids return apperrors.NotFound, checked with
	// apperrors.IsNotFound; absence is not a server failure.
	GetTrace(ctx context.Context, traceID string) (*domain.Trace, error)

	// GetAllTraces returns up to limit traces ordered by row creation time
	// descending, each hydrated with its steps. An empty status means no
	// status filter. An empty result is a successful empty slice.
	GetAllTraces(ctx context.Context, limit int, status domain.Status) ([]domain.Trace, error)

	// Ping reports whether the underlying medium is reachable.
	Ping(ctx context.Context) error

	// Close releases storage resources. Idempotent; call once after all
	// recording and querying activity has ceased.
	Close() error
}
