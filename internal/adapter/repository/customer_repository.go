package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/railroadmedia/customer-io/internal/domain/entity"
	domainErrors "github.com/railroadmedia/customer-io/internal/domain/errors"
	"github.com/railroadmedia/customer-io/internal/domain/model"
	"github.com/railroadmedia/customer-io/internal/domain/repository"
)

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) repository.CustomerRepository {
	return &customerRepository{
		db: db,
	}
}

func (r *customerRepository) modelToEntity(m *model.Customer) (*entity.Customer, error) {
	if m == nil {
		return nil, nil
	}

	customer := &entity.Customer{
		Scope: entity.Scope{
			WorkspaceName: m.WorkspaceName,
			WorkspaceID:   m.WorkspaceID,
			SiteID:        m.SiteID,
		},
		InternalID:    m.InternalID,
		ExternalID:    m.UUID,
		Email:         m.Email,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		SyncStatus:    entity.SyncStatus(m.SyncStatus),
		SyncAttempts:  m.SyncAttempts,
		LastSyncError: m.LastSyncError,
	}
	if m.UserID != nil {
		customer.UserID = *m.UserID
	}
	if m.DeletedAt.Valid {
		deletedAt := m.DeletedAt.Time
		customer.DeletedAt = &deletedAt
	}
	if m.PendingAttributes != "" {
		if err := json.Unmarshal([]byte(m.PendingAttributes), &customer.PendingAttributes); err != nil {
			return nil, err
		}
	}
	return customer, nil
}

func (r *customerRepository) entityToModel(e *entity.Customer) (*model.Customer, error) {
	m := &model.Customer{
		InternalID:    e.InternalID,
		UUID:          e.ExternalID,
		Email:         e.Email,
		WorkspaceName: e.WorkspaceName,
		WorkspaceID:   e.WorkspaceID,
		SiteID:        e.SiteID,
		SyncStatus:    string(e.SyncStatus),
		SyncAttempts:  e.SyncAttempts,
		LastSyncError: e.LastSyncError,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if m.SyncStatus == "" {
		m.SyncStatus = string(entity.SyncStatusSynced)
	}
	if e.UserID != "" {
		userID := e.UserID
		m.UserID = &userID
	}
	if e.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	}
	if len(e.PendingAttributes) > 0 {
		encoded, err := json.Marshal(e.PendingAttributes)
		if err != nil {
			return nil, err
		}
		m.PendingAttributes = string(encoded)
	}
	return m, nil
}

func (r *customerRepository) findOne(ctx context.Context, scope entity.Scope, column, value string) (*entity.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).
		Where(column+" = ?", value).
		Where("workspace_name = ? AND workspace_id = ? AND site_id = ?", scope.WorkspaceName, scope.WorkspaceID, scope.SiteID).
		Order("internal_id").
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, domainErrors.NewPersistenceError("failed to look up customer by "+column, err)
	}

	found, err := r.modelToEntity(&customer)
	if err != nil {
		return nil, domainErrors.NewPersistenceError("failed to decode customer row", err)
	}
	return found, nil
}

func (r *customerRepository) FindByExternalID(ctx context.Context, scope entity.Scope, externalID string) (*entity.Customer, error) {
	return r.findOne(ctx, scope, "uuid", externalID)
}

func (r *customerRepository) FindByEmail(ctx context.Context, scope entity.Scope, email string) (*entity.Customer, error) {
	return r.findOne(ctx, scope, "email", email)
}

func (r *customerRepository) FindByUserID(ctx context.Context, scope entity.Scope, userID string) (*entity.Customer, error) {
	return r.findOne(ctx, scope, "user_id", userID)
}

// FindPendingSync returns rows awaiting a replay, least recently updated first.
func (r *customerRepository) FindPendingSync(ctx context.Context, limit, maxAttempts int) ([]*entity.Customer, error) {
	var rows []model.Customer
	err := r.db.WithContext(ctx).
		Where("sync_status = ?", string(entity.SyncStatusPending)).
		Where("sync_attempts < ?", maxAttempts).
		Order("updated_at").
		Order("internal_id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, domainErrors.NewPersistenceError("failed to list pending customers", err)
	}

	customers := make([]*entity.Customer, 0, len(rows))
	for i := range rows {
		customer, err := r.modelToEntity(&rows[i])
		if err != nil {
			return nil, domainErrors.NewPersistenceError("failed to decode customer row", err)
		}
		customers = append(customers, customer)
	}
	return customers, nil
}

func (r *customerRepository) Insert(ctx context.Context, customer *entity.Customer) error {
	m, err := r.entityToModel(customer)
	if err != nil {
		return domainErrors.NewPersistenceError("failed to encode customer", err)
	}
	m.InternalID = 0

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return domainErrors.NewPersistenceError("failed to insert customer "+customer.ExternalID, err)
	}
	customer.InternalID = m.InternalID
	customer.SyncStatus = entity.SyncStatus(m.SyncStatus)
	return nil
}

func (r *customerRepository) Update(ctx context.Context, customer *entity.Customer) error {
	m, err := r.entityToModel(customer)
	if err != nil {
		return domainErrors.NewPersistenceError("failed to encode customer", err)
	}

	result := r.db.WithContext(ctx).Model(m).Select("*").Omit("internal_id").Updates(m)
	if result.Error != nil {
		return domainErrors.NewPersistenceError("failed to update customer "+customer.ExternalID, result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.NewPersistenceError("failed to update customer "+customer.ExternalID, gorm.ErrRecordNotFound)
	}
	return nil
}

// SoftDelete stamps deleted_at with customer.DeletedAt, or now when unset.
func (r *customerRepository) SoftDelete(ctx context.Context, customer *entity.Customer) error {
	deletedAt := time.Now()
	if customer.DeletedAt != nil {
		deletedAt = *customer.DeletedAt
	}

	result := r.db.WithContext(ctx).
		Model(&model.Customer{InternalID: customer.InternalID}).
		Updates(map[string]interface{}{"deleted_at": deletedAt, "updated_at": deletedAt})
	if result.Error != nil {
		return domainErrors.NewPersistenceError("failed to delete customer "+customer.ExternalID, result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.NewPersistenceError("failed to delete customer "+customer.ExternalID, gorm.ErrRecordNotFound)
	}

	customer.DeletedAt = &deletedAt
	customer.UpdatedAt = deletedAt
	return nil
}

func (r *customerRepository) HardDelete(ctx context.Context, customer *entity.Customer) error {
	err := r.db.WithContext(ctx).Unscoped().Delete(&model.Customer{}, customer.InternalID).Error
	if err != nil {
		return domainErrors.NewPersistenceError("failed to remove customer "+customer.ExternalID, err)
	}
	return nil
}
