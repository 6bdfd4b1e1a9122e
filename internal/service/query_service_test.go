package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Syamgith/decisiontraceX/internal/domain"
	apperrors "github.com/Syamgith/decisiontraceX/internal/pkg/errors"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) GetTrace(ctx context.Context, traceID string) (*domain.Trace, error) {
	args := m.Called(ctx, traceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trace), args.Error(1)
}

func (m *mockReader) GetAllTraces(ctx context.Context, limit int, status domain.Status) ([]domain.Trace, error) {
	args := m.Called(ctx, limit, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Trace), args.Error(1)
}

func (m *mockReader) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestGetTrace(t *testing.T) {
	reader := new(mockReader)
	svc := NewQueryService(reader)

	trace := domain.NewTrace("pipeline", nil)
	reader.On("GetTrace", mock.Anything, trace.TraceID).Return(trace, nil)

	got, err := svc.GetTrace(context.Background(), trace.TraceID)
	require.NoError(t, err)
	assert.Equal(t, trace.TraceID, got.TraceID)
	reader.AssertExpectations(t)
}

func TestGetTrace_NotFoundPassesThrough(t *testing.T) {
	reader := new(mockReader)
	svc := NewQueryService(reader)

	reader.On("GetTrace", mock.Anything, "missing").Return(nil, apperrors.NotFound("trace"))

	_, err := svc.GetTrace(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListTraces(t *testing.T) {
	reader := new(mockReader)
	svc := NewQueryService(reader)

	traces := []domain.Trace{*domain.NewTrace("a", nil)}
	reader.On("GetAllTraces", mock.Anything, 25, domain.StatusFailed).Return(traces, nil)

	got, err := svc.ListTraces(context.Background(), 25, domain.StatusFailed)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	reader.AssertExpectations(t)
}

func TestListTraces_DefaultLimit(t *testing.T) {
	reader := new(mockReader)
	svc := NewQueryService(reader)

	reader.On("GetAllTraces", mock.Anything, DefaultListLimit, domain.Status("")).
		Return([]domain.Trace{}, nil)

	_, err := svc.ListTraces(context.Background(), 0, "")
	require.NoError(t, err)
	reader.AssertExpectations(t)

	reader.On("GetAllTraces", mock.Anything, DefaultListLimit, domain.Status("")).
		Return([]domain.Trace{}, nil)
	_, err = svc.ListTraces(context.Background(), -5, "")
	require.NoError(t, err)
}

func TestListTraces_StorageErrorPassesThrough(t *testing.T) {
	reader := new(mockReader)
	svc := NewQueryService(reader)

	storeErr := errors.New("disk gone")
	reader.On("GetAllTraces", mock.Anything, 10, domain.Status("")).Return(nil, storeErr)

	_, err := svc.ListTraces(context.Background(), 10, "")
	assert.ErrorIs(t, err, storeErr)
}

func TestPing(t *testing.T) {
	reader := new(mockReader)
	svc := NewQueryService(reader)

	reader.On("Ping", mock.Anything).Return(nil)
	assert.NoError(t, svc.Ping(context.Background()))
	reader.AssertExpectations(t)
}
