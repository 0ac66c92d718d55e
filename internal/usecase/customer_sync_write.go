package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/domain/entity"
	domainErrors "github.com/railroadmedia/customer-io/internal/domain/errors"
	"github.com/railroadmedia/customer-io/internal/domain/event"
	"github.com/railroadmedia/customer-io/internal/domain/gateway"
)

type CreateCustomerInput struct {
	Email       string
	AccountName string
	Attributes  map[string]any
	// ExternalID is generated when empty.
	ExternalID string
	UserID     string
	// CreatedAt defaults to now and also seeds UpdatedAt.
	CreatedAt *time.Time
}

// UpdateCustomerInput changes only the fields that are set. Attributes are
// merged into the remote profile; a nil value clears that attribute.
type UpdateCustomerInput struct {
	ExternalID  string
	AccountName string
	Attributes  map[string]any
	Email       string
	UserID      string
	CreatedAt   *time.Time
}

// CreateCustomer inserts a local row and creates its remote profile. If the
// remote push fails the row stays, marked pending_sync, and the error is
// returned.
func (s *CustomerSyncService) CreateCustomer(ctx context.Context, in CreateCustomerInput) (*entity.Customer, error) {
	account, err := s.registry.Resolve(in.AccountName)
	if err != nil {
		return nil, err
	}

	externalID := in.ExternalID
	if externalID == "" {
		if externalID, err = generateExternalID(); err != nil {
			return nil, domainErrors.NewPersistenceError("failed to generate customer id", err)
		}
	}

	createdAt := s.now()
	if in.CreatedAt != nil {
		createdAt = *in.CreatedAt
	}

	customer := &entity.Customer{
		Scope:      account.Scope,
		ExternalID: externalID,
		Email:      in.Email,
		UserID:     in.UserID,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
		SyncStatus: entity.SyncStatusSynced,
	}
	if err := s.repo.Insert(ctx, customer); err != nil {
		return nil, err
	}

	if err := s.pushProfile(ctx, account, customer, in.Email, in.Attributes, in.UserID, &createdAt); err != nil {
		return nil, err
	}

	s.logger.Info("Customer created",
		zap.String("external_id", customer.ExternalID),
		zap.String("account", account.Name))
	s.publish(ctx, event.NewCustomerCreated(customer, s.now()))
	return customer, nil
}

// UpdateCustomer fails with NotFound, without calling the remote, when no
// live row has the external id in the account's scope.
func (s *CustomerSyncService) UpdateCustomer(ctx context.Context, in UpdateCustomerInput) (*entity.Customer, error) {
	account, err := s.registry.Resolve(in.AccountName)
	if err != nil {
		return nil, err
	}

	customer, err := s.repo.FindByExternalID(ctx, account.Scope, in.ExternalID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customerNotFound("id", in.ExternalID, account.Name)
	}

	old := customer.Clone()
	if in.Email != "" {
		customer.Email = in.Email
	}
	if in.UserID != "" {
		customer.UserID = in.UserID
	}
	if in.CreatedAt != nil {
		customer.CreatedAt = *in.CreatedAt
	}
	customer.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}

	if err := s.pushProfile(ctx, account, customer, in.Email, in.Attributes, in.UserID, in.CreatedAt); err != nil {
		return nil, err
	}

	s.publish(ctx, event.NewCustomerUpdated(old, customer, s.now()))
	return customer, nil
}

// CreateOrUpdateCustomerByEmail updates the first live customer with the
// email in the account's scope, or creates one.
func (s *CustomerSyncService) CreateOrUpdateCustomerByEmail(ctx context.Context, email, accountName string, attributes map[string]any, userID string, createdAt *time.Time) (*entity.Customer, error) {
	customer, _, err := s.upsertByEmail(ctx, email, accountName, attributes, userID, createdAt)
	return customer, err
}

func (s *CustomerSyncService) upsertByEmail(ctx context.Context, email, accountName string, attributes map[string]any, userID string, createdAt *time.Time) (*entity.Customer, bool, error) {
	account, err := s.registry.Resolve(accountName)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindByEmail(ctx, account.Scope, email)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		customer, err := s.CreateCustomer(ctx, CreateCustomerInput{
			Email:       email,
			AccountName: accountName,
			Attributes:  attributes,
			UserID:      userID,
			CreatedAt:   createdAt,
		})
		return customer, true, err
	}

	customer, err := s.UpdateCustomer(ctx, UpdateCustomerInput{
		ExternalID:  existing.ExternalID,
		AccountName: accountName,
		Attributes:  attributes,
		UserID:      userID,
		CreatedAt:   createdAt,
	})
	return customer, false, err
}

// CreateOrUpdateCustomerByUserID updates the first live customer with the
// user id in the account's scope, or creates one. The email is applied in
// both cases.
func (s *CustomerSyncService) CreateOrUpdateCustomerByUserID(ctx context.Context, userID, accountName, email string, attributes map[string]any, createdAt *time.Time) (*entity.Customer, error) {
	account, err := s.registry.Resolve(accountName)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByUserID(ctx, account.Scope, userID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return s.CreateCustomer(ctx, CreateCustomerInput{
			Email:       email,
			AccountName: accountName,
			Attributes:  attributes,
			UserID:      userID,
			CreatedAt:   createdAt,
		})
	}

	return s.UpdateCustomer(ctx, UpdateCustomerInput{
		ExternalID:  existing.ExternalID,
		AccountName: accountName,
		Attributes:  attributes,
		Email:       email,
		UserID:      userID,
		CreatedAt:   createdAt,
	})
}

// DeleteCustomer soft-deletes the local row, then deletes the remote
// profile. A remote failure is returned after the local delete has happened.
func (s *CustomerSyncService) DeleteCustomer(ctx context.Context, externalID, accountName string) (*entity.Customer, error) {
	account, err := s.registry.Resolve(accountName)
	if err != nil {
		return nil, err
	}

	customer, err := s.repo.FindByExternalID(ctx, account.Scope, externalID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customerNotFound("id", externalID, account.Name)
	}

	deletedAt := s.now()
	customer.DeletedAt = &deletedAt
	if err := s.repo.SoftDelete(ctx, customer); err != nil {
		return nil, err
	}

	err = s.gateway.DeleteCustomer(ctx, &gateway.DeleteCustomerRequest{
		TrackAuth:  gateway.TrackAuthFor(account),
		ExternalID: externalID,
	})
	if err != nil {
		s.logger.Error("Customer deleted locally but remote delete failed",
			zap.String("external_id", externalID),
			zap.String("account", account.Name),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Customer deleted",
		zap.String("external_id", externalID),
		zap.String("account", account.Name))
	return customer, nil
}

// MergeCustomers folds the secondary customer into the primary one on the
// remote, where the primary's values win, then removes the secondary row.
// Local email and user id gaps on the primary are filled from the secondary.
func (s *CustomerSyncService) MergeCustomers(ctx context.Context, accountName, primaryID, secondaryID string) (*entity.Customer, error) {
	account, err := s.registry.Resolve(accountName)
	if err != nil {
		return nil, err
	}
	if primaryID == secondaryID {
		return nil, domainErrors.NewValidationError("cannot merge customer " + primaryID + " into itself")
	}

	primary, err := s.repo.FindByExternalID(ctx, account.Scope, primaryID)
	if err != nil {
		return nil, err
	}
	secondary, err := s.repo.FindByExternalID(ctx, account.Scope, secondaryID)
	if err != nil {
		return nil, err
	}
	if primary == nil || secondary == nil {
		return nil, domainErrors.NewMergeError(primaryID, secondaryID, accountName)
	}

	err = s.gateway.MergeCustomers(ctx, &gateway.MergeCustomersRequest{
		TrackAuth:   gateway.TrackAuthFor(account),
		PrimaryID:   primaryID,
		SecondaryID: secondaryID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.HardDelete(ctx, secondary); err != nil {
		return nil, err
	}

	old := primary.Clone()
	if primary.Email == "" {
		primary.Email = secondary.Email
	}
	if primary.UserID == "" {
		primary.UserID = secondary.UserID
	}
	primary.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, primary); err != nil {
		return nil, err
	}

	s.logger.Info("Customers merged",
		zap.String("primary_id", primaryID),
		zap.String("secondary_id", secondaryID),
		zap.String("account", account.Name))
	s.publish(ctx, event.NewCustomerUpdated(old, primary, s.now()))
	return primary, nil
}
