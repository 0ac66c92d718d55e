package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/bootstrap"
	"github.com/railroadmedia/customer-io/internal/config"
	"github.com/railroadmedia/customer-io/internal/infrastructure/database"
	httpServer "github.com/railroadmedia/customer-io/internal/infrastructure/http"
	"github.com/railroadmedia/customer-io/internal/infrastructure/scheduler"
	"github.com/railroadmedia/customer-io/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		FilePath:    cfg.Log.FilePath,
		Development: cfg.Log.Development,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("service", cfg.Service.Name))

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		zapLogger.Fatal("Failed to load account catalog", zap.String("path", cfg.CatalogPath), zap.Error(err))
	}

	db, err := database.NewConnection(&cfg.Database, cfg.Log.Level, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.RunsMigrations() {
		if err := database.Migrate(db, zapLogger); err != nil {
			zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
		}
	}

	useCases, err := bootstrap.NewUseCases(cfg, catalog, db, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize use cases", zap.Error(err))
	}
	defer func() {
		if err := useCases.Close(); err != nil {
			zapLogger.Error("Failed to close use case connections", zap.Error(err))
		}
	}()

	var worker *scheduler.ReconcileWorker
	if cfg.Reconciler.Enabled {
		worker = scheduler.NewReconcileWorker(useCases.Reconciler, cfg.Reconciler.Schedule, cfg.Reconciler.Timeout, zapLogger)
		if err := worker.Start(); err != nil {
			zapLogger.Fatal("Failed to start reconcile worker", zap.Error(err))
		}
	}

	httpSrv := httpServer.NewServer(cfg, zapLogger, useCases.Sync, catalog.FormNames())
	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}
	if worker != nil {
		worker.Stop()
	}

	zapLogger.Info("Shut down successfully")
}
