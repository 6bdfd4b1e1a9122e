// Package handler contains the Fiber HTTP handlers for the read API.
package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Syamgith/decisiontraceX/internal/domain"
	"github.com/Syamgith/decisiontraceX/internal/dto"
	apperrors "github.com/Syamgith/decisiontraceX/internal/pkg/errors"
)

// TraceQuerier is the slice of the query service the traces handler needs.
type TraceQuerier interface {
	GetTrace(ctx context.Context, traceID string) (*domain.Trace, error)
	ListTraces(ctx context.Context, limit int, status domain.Status) ([]domain.Trace, error)
}

// TracesHandler handles trace query endpoints
type TracesHandler struct {
	queries TraceQuerier
	logger  *zap.Logger
}

// NewTracesHandler creates a new traces handler
func NewTracesHandler(queries TraceQuerier, logger *zap.Logger) *TracesHandler {
	return &TracesHandler{
		queries: queries,
		logger:  logger,
	}
}

// ListTraces handles GET /api/traces
func (h *TracesHandler) ListTraces(c *fiber.Ctx) error {
	q := dto.DefaultListTracesQuery()
	if err := dto.ParseQueryAndValidate(c, &q); err != nil {
		return err
	}

	traces, err := h.queries.ListTraces(c.Context(), q.Limit, domain.Status(q.Status))
	if err != nil {
		h.logger.Error("failed to list traces", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": err.Error(),
		})
	}

	if traces == nil {
		traces = []domain.Trace{}
	}
	return c.JSON(traces)
}

// GetTrace handles GET /api/traces/:traceId
func (h *TracesHandler) GetTrace(c *fiber.Ctx) error {
	traceID := c.Params("traceId")
	if traceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Trace ID required",
		})
	}

	trace, err := h.queries.GetTrace(c.Context(), traceID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "Not Found",
				"message": "Trace not found",
			})
		}
		h.logger.Error("failed to get trace",
			zap.String("trace_id", traceID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": err.Error(),
		})
	}

	return c.JSON(trace)
}

// RegisterRoutes registers trace query routes under /api
func (h *TracesHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/traces", h.ListTraces)
	api.Get("/traces/:traceId", h.GetTrace)
}
