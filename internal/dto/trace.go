// Package dto holds request parameter shapes and their validation glue.
package dto

// ListTracesQuery holds the query parameters for GET /api/traces.
type ListTracesQuery struct {
	Limit  int    `query:"limit" validate:"gte=1,lte=1000"`
	Status string `query:"status" validate:"omitempty,oneof=running completed failed"`
}

// DefaultListTracesQuery returns the query with default values applied.
func DefaultListTracesQuery() ListTracesQuery {
	return ListTracesQuery{Limit: 100}
}
