package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Syamgith/decisiontraceX/internal/config"
	"github.com/Syamgith/decisiontraceX/internal/middleware"
	"github.com/Syamgith/decisiontraceX/internal/pkg/logger"
)

const (
	appVersion  = "0.1.0"
	serviceName = "decisiontrace-xray-api"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Log

	deps, err := initDependencies(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:               "DecisionTrace X-Ray API",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: cfg.Server.Env == "production",
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.NewLoggerMiddleware(middleware.DefaultLoggerConfig(log)).Handler())
	app.Use(middleware.Recover(middleware.DefaultRecoverConfig(log)))
	app.Use(middleware.NewCORSMiddleware(middleware.DefaultCORSConfig()).Handler())
	app.Use(middleware.NewMetricsMiddleware(middleware.DefaultMetricsConfig()).Handler())

	registerRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info("starting server",
			zap.String("addr", addr),
			zap.String("env", cfg.Server.Env),
			zap.String("storage", cfg.Storage.Path),
		)
		if err := app.Listen(addr); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	// Storage is closed only after all request handling has stopped.
	if err := deps.Close(); err != nil {
		log.Error("failed to close dependencies", zap.Error(err))
	}
}
