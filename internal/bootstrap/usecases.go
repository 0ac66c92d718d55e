package bootstrap

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/railroadmedia/customer-io/internal/config"
	"github.com/railroadmedia/customer-io/internal/infrastructure/customerio"
	"github.com/railroadmedia/customer-io/internal/infrastructure/database"
	"github.com/railroadmedia/customer-io/internal/infrastructure/messaging"
	"github.com/railroadmedia/customer-io/internal/usecase"
	pkgerrors "github.com/railroadmedia/customer-io/pkg/errors"
	pkgmessaging "github.com/railroadmedia/customer-io/pkg/messaging"
)

// UseCases holds the wired application services shared by the binaries.
type UseCases struct {
	Registry   *usecase.AccountRegistry
	Sync       *usecase.CustomerSyncService
	Reconciler *usecase.PendingSyncReconciler
	Bus        *messaging.EventBus

	closers []func() error
}

// NewUseCases builds the service graph on top of an open database. When
// Redis is enabled, domain events are forwarded to the configured channel.
func NewUseCases(cfg *config.Config, catalog *config.Catalog, db *gorm.DB, logger *zap.Logger) (*UseCases, error) {
	repos := database.NewRepositories(db)
	registry := usecase.NewAccountRegistry(catalog.Accounts)
	client := customerio.NewClient(customerio.Config{
		TrackBaseURL: cfg.Remote.TrackBaseURL,
		AppBaseURL:   cfg.Remote.AppBaseURL,
		Timeout:      cfg.Remote.Timeout,
	}, logger)

	uc := &UseCases{
		Registry: registry,
		Bus:      messaging.NewEventBus(logger),
	}

	if cfg.Redis.Enabled {
		publisher, err := pkgmessaging.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to start redis event forwarding")
		}
		uc.closers = append(uc.closers, publisher.Close)

		forwarder := messaging.NewRedisForwarder(publisher, cfg.Redis.Channel, logger)
		uc.Bus.Subscribe(forwarder, forwarder.EventTypes()...)
		logger.Info("Forwarding customer events to redis",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("channel", cfg.Redis.Channel))
	}

	uc.Sync = usecase.NewCustomerSyncService(registry, repos.Customer, client, uc.Bus, catalog, usecase.Options{
		UserIDAttributeName: catalog.UserIDAttributeName,
		SettlePolicy: usecase.SettlePolicy{
			MaxAttempts:     cfg.Settle.MaxAttempts,
			InitialInterval: cfg.Settle.InitialInterval,
			MaxInterval:     cfg.Settle.MaxInterval,
			Multiplier:      cfg.Settle.Multiplier,
		},
	}, logger)

	uc.Reconciler = usecase.NewPendingSyncReconciler(registry, repos.Customer, client,
		cfg.Reconciler.BatchSize, cfg.Reconciler.MaxAttempts, logger)

	return uc, nil
}

// Close releases connections opened by NewUseCases. The database is owned
// by the caller.
func (uc *UseCases) Close() error {
	var firstErr error
	for _, closeFn := range uc.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
