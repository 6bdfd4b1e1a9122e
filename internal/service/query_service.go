// Package service contains the read-side application logic between the
// HTTP transport and the storage layer.
package service

import (
	"context"

	"github.com/Syamgith/decisiontraceX/internal/domain"
)

// DefaultListLimit bounds trace list queries when the caller gives none.
const DefaultListLimit = 100

// TraceReader is the read-only slice of the storage contract the query
// service consumes.
type TraceReader interface {
	GetTrace(ctx context.Context, traceID string) (*domain.Trace, error)
	GetAllTraces(ctx context.Context, limit int, status domain.Status) ([]domain.Trace, error)
	Ping(ctx context.Context) error
}

// QueryService serves trace lookups for the read API. It never retries
// storage failures; they surface to the transport as-is.
type QueryService struct {
	store TraceReader
}

// NewQueryService creates a new query service
func NewQueryService(store TraceReader) *QueryService {
	return &QueryService{store: store}
}

// GetTrace retrieves a fully hydrated trace by ID. Unknown ids surface as
// apperrors.NotFound.
func (s *QueryService) GetTrace(ctx context.Context, traceID string) (*domain.Trace, error) {
	return s.store.GetTrace(ctx, traceID)
}

// ListTraces retrieves up to limit hydrated traces, most recent first,
// optionally filtered to one status. A non-positive limit falls back to
// DefaultListLimit. No matches is a successful empty slice.
func (s *QueryService) ListTraces(ctx context.Context, limit int, status domain.Status) ([]domain.Trace, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.GetAllTraces(ctx, limit, status)
}

// Ping reports storage reachability for readiness probes.
func (s *QueryService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
