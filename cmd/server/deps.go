package main

import (
	"go.uber.org/zap"

	"github.com/Syamgith/decisiontraceX/internal/config"
	"github.com/Syamgith/decisiontraceX/internal/handler"
	"github.com/Syamgith/decisiontraceX/internal/repository"
	"github.com/Syamgith/decisiontraceX/internal/repository/sqlite"
	"github.com/Syamgith/decisiontraceX/internal/service"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Store repository.Store

	QueryService *service.QueryService

	HealthHandler *handler.HealthHandler
	TracesHandler *handler.TracesHandler
}

// initDependencies wires storage, services, and handlers
func initDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	queryService := service.NewQueryService(store)

	return &Dependencies{
		Config:        cfg,
		Logger:        logger,
		Store:         store,
		QueryService:  queryService,
		HealthHandler: handler.NewHealthHandler(serviceName, appVersion, queryService),
		TracesHandler: handler.NewTracesHandler(queryService, logger),
	}, nil
}

// Close releases all dependencies. Call once, after the server has stopped.
func (d *Dependencies) Close() error {
	return d.Store.Close()
}
