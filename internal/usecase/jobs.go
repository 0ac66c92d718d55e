package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SyncUserByEmailJob is a queued request to create or update a customer
// by email. Failures are logged with the job's identifying fields before
// being returned to the queue runner.
type SyncUserByEmailJob struct {
	Email       string
	AccountName string
	Attributes  map[string]any
	UserID      string
	CreatedAt   *time.Time
}

func (j SyncUserByEmailJob) Handle(ctx context.Context, svc *CustomerSyncService, logger *zap.Logger) error {
	_, err := svc.CreateOrUpdateCustomerByEmail(ctx, j.Email, j.AccountName, j.Attributes, j.UserID, j.CreatedAt)
	if err != nil {
		logger.Error("Failed to sync customer by email",
			zap.String("lookup_email", j.Email),
			zap.String("account", j.AccountName),
			zap.String("user_id", j.UserID),
			zap.Any("attributes", j.Attributes),
			zap.Error(err))
	}
	return err
}

// SyncUserByUserIDJob is a queued request to create or update a customer
// by user id.
type SyncUserByUserIDJob struct {
	UserID      string
	AccountName string
	Email       string
	Attributes  map[string]any
	CreatedAt   *time.Time
}

func (j SyncUserByUserIDJob) Handle(ctx context.Context, svc *CustomerSyncService, logger *zap.Logger) error {
	_, err := svc.CreateOrUpdateCustomerByUserID(ctx, j.UserID, j.AccountName, j.Email, j.Attributes, j.CreatedAt)
	if err != nil {
		logger.Error("Failed to sync customer by user id",
			zap.String("user_id", j.UserID),
			zap.String("account", j.AccountName),
			zap.String("email", j.Email),
			zap.Any("attributes", j.Attributes),
			zap.Error(err))
	}
	return err
}
