package repository

import (
	"context"

	"github.com/railroadmedia/customer-io/internal/domain/entity"
)

// CustomerRepository stores local customer rows. Every lookup is bounded by
// the full scope and skips soft-deleted rows; a miss returns nil, nil.
type CustomerRepository interface {
	FindByExternalID(ctx context.Context, scope entity.Scope, externalID string) (*entity.Customer, error)
	FindByEmail(ctx context.Context, scope entity.Scope, email string) (*entity.Customer, error)
	FindByUserID(ctx context.Context, scope entity.Scope, userID string) (*entity.Customer, error)
	// FindPendingSync skips rows whose SyncAttempts reached maxAttempts.
	FindPendingSync(ctx context.Context, limit, maxAttempts int) ([]*entity.Customer, error)

	// Insert assigns InternalID on success.
	Insert(ctx context.Context, customer *entity.Customer) error
	Update(ctx context.Context, customer *entity.Customer) error
	// SoftDelete stamps DeletedAt; the row stays but is invisible to lookups.
	SoftDelete(ctx context.Context, customer *entity.Customer) error
	// HardDelete removes the row. Only merge uses it.
	HardDelete(ctx context.Context, customer *entity.Customer) error
}
