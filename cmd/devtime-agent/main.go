package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devtime/agent/internal/client"
	"devtime/agent/internal/config"
	"devtime/agent/internal/database"
	"devtime/agent/internal/handler"
	"devtime/agent/internal/logger"
	"devtime/agent/internal/repository"
	"devtime/agent/internal/router"
	"devtime/agent/internal/service"

	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting devtime agent",
		zap.String("env", cfg.Env),
		zap.String("config_path", *configPath),
	)

	// Initialize database
	db, err := database.New(cfg.StoragePath, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Initialize repositories
	records := repository.NewActivityRecordRepository(db.DB)
	settings := repository.NewSettingsRepository(db.DB)
	diag := repository.NewDiagnosticLogRepository(db.DB)

	// Initialize GraphQL client
	gql := client.NewGraphQLClient(
		cfg.Backend.GraphQLURL,
		time.Duration(cfg.Backend.Timeout)*time.Second,
		log.Logger,
	)

	// Initialize services
	catalogService := service.NewCatalogService(
		gql,
		time.Duration(cfg.Sync.CatalogRefreshInterval)*time.Second,
		time.Duration(cfg.Sync.EntityHorizonDays)*24*time.Hour,
		log.Logger,
	)
	worklogService := service.NewWorklogService(
		gql,
		time.Duration(cfg.Sync.MergeGap)*time.Second,
		log.Logger,
	)
	eventService := service.NewEventService(
		records,
		gql,
		cfg.Sync.PageSize,
		time.Duration(cfg.Sync.PollInterval)*time.Second,
		log.Logger,
	)
	syncService := service.NewSyncService(
		service.SyncOptions{
			Interval:         time.Duration(cfg.Sync.Interval) * time.Second,
			ChunkEvery:       time.Duration(cfg.Sync.ChunkEvery) * time.Second,
			SummaryThreshold: cfg.Sync.SummaryThreshold,
			MergeGap:         time.Duration(cfg.Sync.MergeGap) * time.Second,
			PageSize:         cfg.Sync.PageSize,
		},
		records,
		settings,
		diag,
		catalogService,
		worklogService,
		eventService,
		log.Logger,
	)

	// Start sync service
	syncService.Start()

	// Start local status server for the desktop UI
	var statusServer *http.Server
	if cfg.Server.Enabled {
		statusHandler := handler.NewStatusHandler(syncService, diag, log.Logger)
		addr := fmt.Sprintf("localhost:%d", cfg.Server.Port)
		statusServer = &http.Server{
			Addr:         addr,
			Handler:      router.New(statusHandler, log.Logger),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Info("Starting status server", zap.String("address", addr))
			if err := statusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Status server error", zap.Error(err))
			}
		}()
	} else {
		log.Info("Status server disabled in configuration")
	}

	log.Info("Devtime agent started successfully",
		zap.String("backend_url", cfg.Backend.GraphQLURL),
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	log.Info("Shutting down devtime agent...")

	// Stop status server if enabled
	if statusServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := statusServer.Shutdown(ctx); err != nil {
			log.Warn("Status server shutdown error", zap.Error(err))
		} else {
			log.Info("Status server stopped")
		}
	}

	// Stop sync service, waiting for an in-flight run with a timeout
	done := make(chan struct{})
	go func() {
		syncService.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Sync service stopped successfully")
	case <-time.After(5 * time.Second):
		log.Warn("Shutdown timeout reached, exiting with run in flight")
	}

	log.Info("Devtime agent stopped")
}
