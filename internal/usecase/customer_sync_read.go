package usecase

import (
	"context"

	"github.com/railroadmedia/customer-io/internal/domain/entity"
	domainErrors "github.com/railroadmedia/customer-io/internal/domain/errors"
	"github.com/railroadmedia/customer-io/internal/domain/gateway"
)

// GetCustomerByID returns the local row with its remote profile.
func (s *CustomerSyncService) GetCustomerByID(ctx context.Context, accountName, externalID string) (*entity.CustomerView, error) {
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
	return s.view(ctx, account, customer)
}

func (s *CustomerSyncService) GetCustomerByUserID(ctx context.Context, accountName, userID string) (*entity.CustomerView, error) {
	account, err := s.registry.Resolve(accountName)
	if err != nil {
		return nil, err
	}

	customer, err := s.repo.FindByUserID(ctx, account.Scope, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customerNotFound("user id", userID, account.Name)
	}
	return s.view(ctx, account, customer)
}

// view reads the remote profile. Only a row created within the settle
// window is retried on 404; an older row that the remote lacks has drifted
// and the miss is returned at once.
func (s *CustomerSyncService) view(ctx context.Context, account *entity.Account, customer *entity.Customer) (*entity.CustomerView, error) {
	read := func() (*entity.RemoteCustomer, error) {
		return s.gateway.GetCustomer(ctx, account.AppAPIKey, customer.ExternalID)
	}

	var remote *entity.RemoteCustomer
	var err error
	if s.now().Sub(customer.CreatedAt) < s.opts.SettlePolicy.Window() {
		err = s.opts.SettlePolicy.Do(ctx, domainErrors.IsNotFound, func() error {
			var readErr error
			remote, readErr = read()
			return readErr
		})
	} else {
		remote, err = read()
	}
	if err != nil {
		return nil, err
	}

	return &entity.CustomerView{
		Customer:   customer,
		Attributes: remote.Attributes,
		Devices:    remote.Devices,
	}, nil
}

// GetCustomerEventsByUserID lists the customer's remote events. cursor is
// the Next value of a previous page, empty for the first page.
func (s *CustomerSyncService) GetCustomerEventsByUserID(ctx context.Context, accountName, userID string, limit int, cursor string) (*entity.ActivityPage, error) {
	account, err := s.registry.Resolve(accountName)
	if err != nil {
		return nil, err
	}

	customer, err := s.repo.FindByUserID(ctx, account.Scope, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customerNotFound("user id", userID, account.Name)
	}

	if limit <= 0 {
		limit = gateway.DefaultActivitiesLimit
	}
	return s.gateway.GetActivities(ctx, &gateway.ActivitiesRequest{
		AppAPIKey:  account.AppAPIKey,
		ExternalID: customer.ExternalID,
		Type:       "event",
		Limit:      limit,
		Start:      cursor,
	})
}
