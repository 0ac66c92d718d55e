package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/domain/entity"
	domainErrors "github.com/railroadmedia/customer-io/internal/domain/errors"
	"github.com/railroadmedia/customer-io/internal/domain/gateway"
)

func retryAfterCreate(err error) bool {
	return domainErrors.IsRemoteAPI(err) || domainErrors.IsNotFound(err)
}

// afterWrite runs op once, or under the settle policy when the customer was
// created moments before.
func (s *CustomerSyncService) afterWrite(ctx context.Context, justCreated bool, op func() error) error {
	if !justCreated {
		return op()
	}
	return s.opts.SettlePolicy.Do(ctx, retryAfterCreate, op)
}

func (s *CustomerSyncService) pushEvent(ctx context.Context, account *entity.Account, externalID, name string, data map[string]any, eventType string, createdAt *time.Time, justCreated bool) error {
	req := &gateway.CreateEventRequest{
		TrackAuth:  gateway.TrackAuthFor(account),
		ExternalID: externalID,
		Name:       name,
		Data:       data,
		Type:       eventType,
		Timestamp:  createdAt,
	}
	return s.afterWrite(ctx, justCreated, func() error {
		return s.gateway.CreateEvent(ctx, req)
	})
}

// CreateEvent records an event for a remote customer. Nothing local changes.
func (s *CustomerSyncService) CreateEvent(ctx context.Context, externalID, accountName, name string, data map[string]any, eventType string, createdAt *time.Time) error {
	account, err := s.registry.Resolve(accountName)
	if err != nil {
		return err
	}
	return s.pushEvent(ctx, account, externalID, name, data, eventType, createdAt, false)
}

// CreateEventForEmailOrID records an event for the customer with the given
// external id, or else with the given email. A customer is created from the
// email only when no id is given and the email has no row.
func (s *CustomerSyncService) CreateEventForEmailOrID(ctx context.Context, email, externalID, accountName, name, eventType string, createdAt *time.Time) (*entity.Customer, error) {
	account, err := s.registry.Resolve(accountName)
	if err != nil {
		return nil, err
	}

	var customer *entity.Customer
	justCreated := false
	if externalID != "" {
		customer, err = s.repo.FindByExternalID(ctx, account.Scope, externalID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, customerNotFound("id", externalID, account.Name)
		}
	} else {
		if email == "" {
			return nil, customerNotFound("email", email, account.Name)
		}
		customer, err = s.repo.FindByEmail(ctx, account.Scope, email)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			customer, err = s.CreateCustomer(ctx, CreateCustomerInput{Email: email, AccountName: accountName})
			if err != nil {
				return nil, err
			}
			justCreated = true
		}
	}

	if err := s.pushEvent(ctx, account, customer.ExternalID, name, nil, eventType, createdAt, justCreated); err != nil {
		return nil, err
	}
	return customer, nil
}

// CreateEventForUserID records an event for the customer with the user id.
func (s *CustomerSyncService) CreateEventForUserID(ctx context.Context, userID, accountName, name string, data map[string]any, eventType string, createdAt *time.Time) (*entity.Customer, error) {
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

	if err := s.pushEvent(ctx, account, customer.ExternalID, name, data, eventType, createdAt, false); err != nil {
		return nil, err
	}
	return customer, nil
}

// SendTransactionalEmail sends a transactional message to the customer with
// the email, creating the customer first when needed.
func (s *CustomerSyncService) SendTransactionalEmail(ctx context.Context, accountName, messageID, toEmail string, messageData map[string]any) (bool, error) {
	account, err := s.registry.Resolve(accountName)
	if err != nil {
		return false, err
	}

	customer, err := s.repo.FindByEmail(ctx, account.Scope, toEmail)
	if err != nil {
		return false, err
	}

	justCreated := false
	if customer == nil {
		customer, err = s.CreateCustomer(ctx, CreateCustomerInput{Email: toEmail, AccountName: accountName})
		if err != nil {
			return false, err
		}
		justCreated = true
	}

	var deliveryID string
	err = s.afterWrite(ctx, justCreated, func() error {
		var sendErr error
		deliveryID, sendErr = s.gateway.SendTransactionalEmail(ctx, &gateway.TransactionalEmailRequest{
			AppAPIKey:   account.AppAPIKey,
			MessageID:   messageID,
			To:          toEmail,
			ExternalID:  customer.ExternalID,
			MessageData: messageData,
		})
		return sendErr
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("Transactional email queued",
		zap.String("message_id", messageID),
		zap.String("external_id", customer.ExternalID),
		zap.String("delivery_id", deliveryID))
	return true, nil
}

// SyncDeviceForUserID registers a device for the customer with the user id.
// createdAt becomes the device's last used time when the device has none.
func (s *CustomerSyncService) SyncDeviceForUserID(ctx context.Context, userID, accountName string, device entity.Device, createdAt *time.Time) (*entity.Customer, error) {
	account, err := s.registry.Resolve(accountName)
	if err != nil {
		return nil, err
	}
	if device.ID == "" || device.Platform == "" {
		return nil, domainErrors.NewValidationError("device id and platform are required")
	}

	customer, err := s.repo.FindByUserID(ctx, account.Scope, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customerNotFound("user id", userID, account.Name)
	}

	if device.LastUsed == nil {
		device.LastUsed = createdAt
	}
	err = s.gateway.AddDevice(ctx, &gateway.AddDeviceRequest{
		TrackAuth:  gateway.TrackAuthFor(account),
		ExternalID: customer.ExternalID,
		Device:     device,
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}
