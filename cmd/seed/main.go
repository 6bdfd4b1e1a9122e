// Command seed records a few sample traces through the X-Ray SDK so the
// query API has data to serve during local development. It plays the role
// of an external caller; the recording model itself lives in the xray
// package.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Syamgith/decisiontraceX/internal/config"
	"github.com/Syamgith/decisiontraceX/internal/pkg/logger"
	"github.com/Syamgith/decisiontraceX/internal/repository/sqlite"
	"github.com/Syamgith/decisiontraceX/xray"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Log

	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal("failed to open storage", zap.Error(err))
	}
	defer store.Close()

	x := xray.New(store, xray.WithLogger(log))
	ctx := context.Background()

	if err := recordSearchPipeline(ctx, x); err != nil {
		log.Fatal("failed to record sample pipeline", zap.Error(err))
	}
	if err := recordFailedPipeline(ctx, x); err != nil {
		// Expected: the sample failure propagates out of the trace scope.
		log.Info("recorded failed sample pipeline", zap.Error(err))
	}

	log.Info("seed complete", zap.String("storage", cfg.Storage.Path))
}

// recordSearchPipeline records a completed three-step product search run.
func recordSearchPipeline(ctx context.Context, x *xray.XRay) error {
	return x.Trace(ctx, "product-search", func(tc *xray.TraceScope) error {
		query := "wireless noise cancelling headphones under $200"

		err := tc.Step(ctx, "extract-keywords", func(sc *xray.StepScope) error {
			sc.SetInput(map[string]any{"query": query})
			sc.SetOutput(map[string]any{
				"keywords": []string{"wireless", "noise cancelling", "headphones"},
				"budget":   200,
			})
			sc.SetReasoning("Pulled product attributes and a price ceiling from the raw query.")
			tokens := int64(184)
			temperature := 0.2
			sc.AddModelCallMetadata(xray.ModelCall{
				Model:       "gpt-4o-mini",
				TokensUsed:  &tokens,
				Temperature: &temperature,
			})
			return nil
		})
		if err != nil {
			return err
		}

		err = tc.Step(ctx, "filter-candidates", func(sc *xray.StepScope) error {
			sc.SetInput(map[string]any{"candidates": 3, "budget": 200})
			priceFilter := []map[string]any{{"field": "price", "op": "lte", "value": 200}}
			sc.AddEvaluation("prod-101", map[string]any{"name": "AeroBuds Pro", "price": 149},
				priceFilter, true, "within budget")
			sc.AddEvaluation("prod-102", map[string]any{"name": "StudioMax", "price": 289},
				priceFilter, false, "over budget")
			sc.AddEvaluation("prod-103", map[string]any{"name": "QuietTone", "price": 199},
				priceFilter, true, "within budget")
			sc.SetOutput(map[string]any{"qualified": []string{"prod-101", "prod-103"}})
			return nil
		})
		if err != nil {
			return err
		}

		return tc.Step(ctx, "rank-results", func(sc *xray.StepScope) error {
			sc.SetInput(map[string]any{"qualified": []string{"prod-101", "prod-103"}})
			sc.SetOutput(map[string]any{"ranked": []string{"prod-103", "prod-101"}})
			sc.SetMetadata(map[string]any{"ranker": "price-weighted"})
			return nil
		})
	}, xray.WithMetadata(map[string]any{"source": "seed"}))
}

// recordFailedPipeline records a trace whose second step fails, exercising
// the cascading failure path.
func recordFailedPipeline(ctx context.Context, x *xray.XRay) error {
	return x.Trace(ctx, "inventory-sync", func(tc *xray.TraceScope) error {
		err := tc.Step(ctx, "load-feed", func(sc *xray.StepScope) error {
			sc.SetInput(map[string]any{"feed": "warehouse-7"})
			sc.SetOutput(map[string]any{"items": 42})
			return nil
		})
		if err != nil {
			return err
		}

		return tc.Step(ctx, "validate-feed", func(sc *xray.StepScope) error {
			sc.SetInput(map[string]any{"items": 42})
			return errors.New("feed checksum mismatch")
		})
	}, xray.WithMetadata(map[string]any{"source": "seed"}))
}
