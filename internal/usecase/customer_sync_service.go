package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/config"
	"github.com/railroadmedia/customer-io/internal/domain/entity"
	domainErrors "github.com/railroadmedia/customer-io/internal/domain/errors"
	"github.com/railroadmedia/customer-io/internal/domain/event"
	"github.com/railroadmedia/customer-io/internal/domain/gateway"
	"github.com/railroadmedia/customer-io/internal/domain/repository"
)

// Options tune a CustomerSyncService. Zero values fall back to defaults.
type Options struct {
	// UserIDAttributeName is the remote attribute a customer's user id is
	// written to. Defaults to the catalog setting, then "user_id".
	UserIDAttributeName string
	SettlePolicy        SettlePolicy
	Clock               func() time.Time
}

// CustomerSyncService keeps local customer rows and their customer.io
// profiles in step. Operations run sequentially on the caller's goroutine.
//
// The remote is eventually consistent: right after a customer is created it
// may still answer 404 or reject events for it. Every remote call that
// depends on a write made moments before is wrapped in the SettlePolicy.
//
// When the local write succeeds but the remote push fails, the row is
// marked pending_sync with the payload that failed, and the error is still
// returned. PendingSyncReconciler replays those rows.
type CustomerSyncService struct {
	registry  *AccountRegistry
	repo      repository.CustomerRepository
	gateway   gateway.CustomerGateway
	publisher event.Publisher
	catalog   *config.Catalog
	opts      Options
	logger    *zap.Logger
}

func NewCustomerSyncService(
	registry *AccountRegistry,
	repo repository.CustomerRepository,
	gw gateway.CustomerGateway,
	publisher event.Publisher,
	catalog *config.Catalog,
	opts Options,
	logger *zap.Logger,
) *CustomerSyncService {
	if catalog == nil {
		catalog = &config.Catalog{}
	}
	if opts.UserIDAttributeName == "" {
		opts.UserIDAttributeName = catalog.UserIDAttributeName
	}
	if opts.UserIDAttributeName == "" {
		opts.UserIDAttributeName = config.DefaultUserIDAttributeName
	}
	if opts.SettlePolicy.MaxAttempts == 0 {
		opts.SettlePolicy = DefaultSettlePolicy()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &CustomerSyncService{
		registry:  registry,
		repo:      repo,
		gateway:   gw,
		publisher: publisher,
		catalog:   catalog,
		opts:      opts,
		logger:    logger,
	}
}

func (s *CustomerSyncService) now() time.Time {
	return s.opts.Clock()
}

// generateExternalID returns 32 lowercase hex characters.
func generateExternalID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *CustomerSyncService) publish(ctx context.Context, events ...event.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish customer events", zap.Error(err))
	}
}

// pushProfile upserts the remote profile. A payload left behind by an
// earlier failed push is sent along, with newer values taking precedence.
func (s *CustomerSyncService) pushProfile(ctx context.Context, account *entity.Account, customer *entity.Customer, email string, attributes map[string]any, userID string, createdAt *time.Time) error {
	payload := make(map[string]any, len(customer.PendingAttributes)+len(attributes)+1)
	for name, value := range customer.PendingAttributes {
		payload[name] = value
	}
	for name, value := range attributes {
		payload[name] = value
	}
	if userID != "" {
		payload[s.opts.UserIDAttributeName] = userID
	}

	err := s.gateway.UpsertCustomer(ctx, &gateway.UpsertCustomerRequest{
		TrackAuth:  gateway.TrackAuthFor(account),
		ExternalID: customer.ExternalID,
		Email:      email,
		Attributes: payload,
		CreatedAt:  createdAt,
	})
	if err != nil {
		if email != "" {
			payload["email"] = email
		}
		if createdAt != nil {
			payload["created_at"] = createdAt.Unix()
		}
		s.markPending(ctx, customer, payload, err)
		return err
	}

	if customer.IsPending() {
		s.markSynced(ctx, customer)
	}
	return nil
}

func (s *CustomerSyncService) markPending(ctx context.Context, customer *entity.Customer, payload map[string]any, cause error) {
	customer.SyncStatus = entity.SyncStatusPending
	customer.SyncAttempts++
	customer.LastSyncError = cause.Error()
	customer.PendingAttributes = payload

	s.logger.Warn("Remote push failed, customer marked pending sync",
		zap.String("external_id", customer.ExternalID),
		zap.String("workspace_name", customer.WorkspaceName),
		zap.Int("sync_attempts", customer.SyncAttempts),
		zap.Error(cause))

	if err := s.repo.Update(ctx, customer); err != nil {
		s.logger.Error("Failed to mark customer pending sync",
			zap.String("external_id", customer.ExternalID),
			zap.Error(err))
	}
}

func (s *CustomerSyncService) markSynced(ctx context.Context, customer *entity.Customer) {
	customer.SyncStatus = entity.SyncStatusSynced
	customer.SyncAttempts = 0
	customer.LastSyncError = ""
	customer.PendingAttributes = nil

	if err := s.repo.Update(ctx, customer); err != nil {
		s.logger.Error("Failed to mark customer synced",
			zap.String("external_id", customer.ExternalID),
			zap.Error(err))
	}
}

func customerNotFound(key, value, accountName string) error {
	return domainErrors.NewNotFoundError("no customer with " + key + " " + value + " for account " + accountName)
}
