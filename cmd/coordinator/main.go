package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nemanja-m/divvy/internal/bootstrap"
	"github.com/nemanja-m/divvy/internal/coordinator/api/rest"
	"github.com/nemanja-m/divvy/internal/coordinator/service"
	"github.com/nemanja-m/divvy/internal/shared/config"
	"github.com/nemanja-m/divvy/internal/shared/logging"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		slog.Error("Failed to create logger", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := bootstrap.NewStores(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open storage", "backend", cfg.Storage.Backend, "error", err)
	}
	defer stores.Close()

	deps, err := bootstrap.NewOperatorDeps(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to prepare operators", "error", err)
	}

	jobService := service.NewJobService(stores.Jobs, service.JobServiceConfig{
		BlockSize:    cfg.Datasets.BlockSize,
		MaxDividends: cfg.Datasets.MaxDividends,
		ReportsDir:   cfg.Reports.Dir,
	}, logger)
	workerService := service.NewWorkerService(stores.Workers, logger)

	recovered, err := jobService.Recover()
	if err != nil {
		logger.Fatal("Failed to recover jobs", "error", err)
	}
	if recovered > 0 {
		logger.Info("Requeued dividends of unfinished jobs", "dividends", recovered)
	}

	healthChecker := service.NewWorkerHealthChecker(service.HealthCheckerConfig{
		CheckInterval: cfg.Health.CheckInterval,
		StaleTimeout:  cfg.Health.StaleTimeout,
	}, workerService, jobService, logger)
	go healthChecker.Run(ctx)

	workers, err := bootstrap.StartWorkers(ctx, cfg.Workers, jobService, workerService, deps, logger)
	if err != nil {
		logger.Fatal("Failed to start workers", "error", err)
	}

	api := rest.NewAPI(jobService, workerService, logger)
	server := rest.NewServer(rest.ServerConfig{
		Addr:         cfg.REST.Addr,
		ReadTimeout:  cfg.REST.ReadTimeout,
		WriteTimeout: cfg.REST.WriteTimeout,
		IdleTimeout:  cfg.REST.IdleTimeout,
	}, api, logger)

	go func() {
		logger.Info("Starting REST API server", "addr", cfg.REST.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("REST server error", "error", err)
		}
	}()

	logger.Info("Coordinator started",
		"storage", cfg.Storage.Backend,
		"workers", cfg.Workers.Count,
		"reports_dir", cfg.Reports.Dir,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down coordinator...")

	// Give server 30 seconds to finish serving ongoing requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("REST server forced to shutdown", "error", err)
	}

	cancel()
	workers.Close()

	logger.Info("Coordinator stopped")
}
