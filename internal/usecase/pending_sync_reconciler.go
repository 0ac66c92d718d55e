package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/domain/entity"
	"github.com/railroadmedia/customer-io/internal/domain/gateway"
	"github.com/railroadmedia/customer-io/internal/domain/repository"
)

const (
	defaultReconcileBatchSize   = 100
	defaultReconcileMaxAttempts = 10
)

type ReconcileResult struct {
	Synced    int
	Failed    int
	Abandoned int
}

// PendingSyncReconciler replays remote pushes that failed after the local
// write succeeded. Rows that reach MaxAttempts are no longer selected and
// are left for manual repair.
type PendingSyncReconciler struct {
	registry    *AccountRegistry
	repo        repository.CustomerRepository
	gateway     gateway.CustomerGateway
	batchSize   int
	maxAttempts int
	logger      *zap.Logger
}

func NewPendingSyncReconciler(registry *AccountRegistry, repo repository.CustomerRepository, gw gateway.CustomerGateway, batchSize, maxAttempts int, logger *zap.Logger) *PendingSyncReconciler {
	if batchSize <= 0 {
		batchSize = defaultReconcileBatchSize
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultReconcileMaxAttempts
	}
	return &PendingSyncReconciler{
		registry:    registry,
		repo:        repo,
		gateway:     gw,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// ReconcileOnce processes one batch of pending rows, one at a time.
func (r *PendingSyncReconciler) ReconcileOnce(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	pending, err := r.repo.FindPendingSync(ctx, r.batchSize, r.maxAttempts)
	if err != nil {
		return result, err
	}

	for _, customer := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		if err := r.replay(ctx, customer); err != nil {
			if customer.SyncAttempts >= r.maxAttempts {
				result.Abandoned++
				r.logger.Error("Customer exceeded sync attempts, manual repair needed",
					zap.String("external_id", customer.ExternalID),
					zap.String("workspace_name", customer.WorkspaceName),
					zap.Int("sync_attempts", customer.SyncAttempts),
					zap.String("last_sync_error", customer.LastSyncError))
				continue
			}
			result.Failed++
			continue
		}
		result.Synced++
	}

	if len(pending) > 0 {
		r.logger.Info("Pending sync reconciliation finished",
			zap.Int("synced", result.Synced),
			zap.Int("failed", result.Failed),
			zap.Int("abandoned", result.Abandoned))
	}
	return result, nil
}

func (r *PendingSyncReconciler) replay(ctx context.Context, customer *entity.Customer) error {
	account, err := r.registry.ResolveScope(customer.Scope)
	if err != nil {
		r.logger.Warn("No account configured for pending customer",
			zap.String("external_id", customer.ExternalID),
			zap.String("workspace_name", customer.WorkspaceName))
		return r.recordFailure(ctx, customer, err)
	}

	var createdAt *time.Time
	if !customer.CreatedAt.IsZero() {
		createdAt = &customer.CreatedAt
	}
	attributes := make(map[string]any, len(customer.PendingAttributes))
	for name, value := range customer.PendingAttributes {
		if name == "email" || name == "created_at" {
			continue
		}
		attributes[name] = value
	}

	err = r.gateway.UpsertCustomer(ctx, &gateway.UpsertCustomerRequest{
		TrackAuth:  gateway.TrackAuthFor(account),
		ExternalID: customer.ExternalID,
		Email:      customer.Email,
		Attributes: attributes,
		CreatedAt:  createdAt,
	})
	if err != nil {
		r.logger.Warn("Pending customer replay failed",
			zap.String("external_id", customer.ExternalID),
			zap.Error(err))
		return r.recordFailure(ctx, customer, err)
	}

	customer.SyncStatus = entity.SyncStatusSynced
	customer.SyncAttempts = 0
	customer.LastSyncError = ""
	customer.PendingAttributes = nil
	if err := r.repo.Update(ctx, customer); err != nil {
		r.logger.Error("Failed to mark replayed customer synced",
			zap.String("external_id", customer.ExternalID),
			zap.Error(err))
		return err
	}
	return nil
}

func (r *PendingSyncReconciler) recordFailure(ctx context.Context, customer *entity.Customer, cause error) error {
	customer.SyncAttempts++
	customer.LastSyncError = cause.Error()
	if err := r.repo.Update(ctx, customer); err != nil {
		r.logger.Error("Failed to record sync failure",
			zap.String("external_id", customer.ExternalID),
			zap.Error(err))
	}
	return cause
}
