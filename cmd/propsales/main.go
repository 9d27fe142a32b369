package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propsales/internal/app"
	"github.com/kailas-cloud/propsales/internal/config"
	logpkg "github.com/kailas-cloud/propsales/internal/logger"
	"github.com/kailas-cloud/propsales/internal/metrics"
	chiTransport "github.com/kailas-cloud/propsales/internal/transport/chi"
	healthuc "github.com/kailas-cloud/propsales/internal/usecase/health"
	searchuc "github.com/kailas-cloud/propsales/internal/usecase/search"
	"github.com/kailas-cloud/propsales/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting propsales API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := app.OpenStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Register ingest metrics explicitly (no init())
	metrics.RegisterIngestMetrics()

	ctx := context.Background()
	deps, err := app.Build(ctx, &cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	logger.Info("Connected to database", zap.String("index", deps.Properties.IndexName()))

	searchSvc := searchuc.New(deps.Properties, cfg.Search.PageSize)
	healthSvc := healthuc.New(store, deps.Properties)

	server := chiTransport.NewServer(searchSvc, deps.Ingest, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
