// Package xray is the recording SDK for DecisionTrace.
//
// A caller opens a trace scope, records ordered steps inside it, and every
// scope persists its state on exit. Two styles are supported: explicit
// StartTrace/StartStep with End, and closure runners (XRay.Trace,
// TraceScope.Step) that guarantee the close logic runs on every exit path,
// including panics.
//
//	x := xray.New(store)
//	err := x.Trace(ctx, "pipeline", func(tc *xray.TraceScope) error {
//	    return tc.Step(ctx, "filter", func(sc *xray.StepScope) error {
//	        sc.SetInput(map[string]any{"q": 1})
//	        sc.SetOutput(map[string]any{"r": 2})
//	        return nil
//	    })
//	})
//
// Scopes are not safe for concurrent use: the pattern is one logical
// goroutine per open trace. Independent traces may be recorded concurrently
// as long as the store is safe for concurrent access.
package xray

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Syamgith/decisiontraceX/internal/repository"
)

// XRay creates trace scopes bound to a shared store.
type XRay struct {
	store  repository.Store
	logger *zap.Logger
}

// Option configures the XRay client.
type Option func(*XRay)

// WithLogger sets the logger used for persistence failures that cannot be
// returned to the caller without displacing the caller's own error.
func WithLogger(logger *zap.Logger) Option {
	return func(x *XRay) {
		x.logger = logger
	}
}

// New creates an XRay client. The store is shared across all traces and
// must outlive them; close it once all recording and querying has ceased.
func New(store repository.Store, opts ...Option) *XRay {
	x := &XRay{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Trace opens a trace scope, runs fn inside it, and closes the scope on
// every exit path. The body error is returned unchanged; a panic in fn is
// recorded as a failure and re-raised. A storage error from the close is
// returned only when the body itself succeeded.
func (x *XRay) Trace(ctx context.Context, name string, fn func(*TraceScope) error, opts ...TraceOption) error {
	tc, err := x.StartTrace(ctx, name, opts...)
	if err != nil {
		return err
	}
	return runScoped(ctx, tc.End, x.logger, "trace", tc.ID(), func() error {
		return fn(tc)
	})
}

// runScoped runs body and guarantees end is called with the outcome,
// recording panics as failures before re-raising them.
func runScoped(ctx context.Context, end func(context.Context, error) error, logger *zap.Logger, kind, id string, body func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if endErr := end(ctx, fmt.Errorf("panic: %v", r)); endErr != nil {
				logger.Error("failed to persist "+kind+" on panic",
					zap.String(kind+"_id", id),
					zap.Error(endErr),
				)
			}
			panic(r)
		}
	}()

	err = body()
	if endErr := end(ctx, err); endErr != nil {
		if err == nil {
			return endErr
		}
		logger.Error("failed to persist "+kind,
			zap.String(kind+"_id", id),
			zap.Error(endErr),
		)
	}
	return err
}
