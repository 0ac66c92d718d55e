// Command reconcile replays customers left pending_sync by failed remote
// pushes, one batch per invocation. It is meant for cron or manual repair
// when the server's in-process worker is disabled.
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
	pkgerrors "github.com/railroadmedia/customer-io/pkg/errors"
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

	if err := run(cfg, zapLogger); err != nil {
		pkgerrors.LogError(zapLogger, err, "Reconcile failed")
		zapLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to load account catalog")
	}

	db, err := database.NewConnection(&cfg.Database, cfg.Log.Level, zapLogger)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to connect to database")
	}
	defer database.Close(db, zapLogger)

	useCases, err := bootstrap.NewUseCases(cfg, catalog, db, zapLogger)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to wire services")
	}
	defer useCases.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Reconciler.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Reconciler.Timeout)
		defer cancel()
	}

	result, err := useCases.Reconciler.ReconcileOnce(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "reconcile run aborted")
	}

	zapLogger.Info("Reconcile finished",
		zap.Int("synced", result.Synced),
		zap.Int("failed", result.Failed),
		zap.Int("abandoned", result.Abandoned))
	return nil
}
