package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	adapterRepo "github.com/railroadmedia/customer-io/internal/adapter/repository"
	"github.com/railroadmedia/customer-io/internal/config"
	"github.com/railroadmedia/customer-io/internal/domain/entity"
	"github.com/railroadmedia/customer-io/internal/domain/event"
	"github.com/railroadmedia/customer-io/internal/domain/gateway"
	"github.com/railroadmedia/customer-io/internal/domain/model"
	"github.com/railroadmedia/customer-io/internal/domain/repository"
)

// MockCustomerGateway implements gateway.CustomerGateway for testing
type MockCustomerGateway struct {
	mock.Mock
}

func (m *MockCustomerGateway) UpsertCustomer(ctx context.Context, req *gateway.UpsertCustomerRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockCustomerGateway) GetCustomer(ctx context.Context, appAPIKey, externalID string) (*entity.RemoteCustomer, error) {
	args := m.Called(ctx, appAPIKey, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RemoteCustomer), args.Error(1)
}

func (m *MockCustomerGateway) CreateEvent(ctx context.Context, req *gateway.CreateEventRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockCustomerGateway) GetActivities(ctx context.Context, req *gateway.ActivitiesRequest) (*entity.ActivityPage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ActivityPage), args.Error(1)
}

func (m *MockCustomerGateway) SendTransactionalEmail(ctx context.Context, req *gateway.TransactionalEmailRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockCustomerGateway) AddDevice(ctx context.Context, req *gateway.AddDeviceRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockCustomerGateway) MergeCustomers(ctx context.Context, req *gateway.MergeCustomersRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockCustomerGateway) DeleteCustomer(ctx context.Context, req *gateway.DeleteCustomerRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// upserts returns the requests UpsertCustomer was called with, in order.
func (m *MockCustomerGateway) upserts() []*gateway.UpsertCustomerRequest {
	var reqs []*gateway.UpsertCustomerRequest
	for _, call := range m.Calls {
		if call.Method == "UpsertCustomer" {
			reqs = append(reqs, call.Arguments.Get(1).(*gateway.UpsertCustomerRequest))
		}
	}
	return reqs
}

func (m *MockCustomerGateway) events() []*gateway.CreateEventRequest {
	var reqs []*gateway.CreateEventRequest
	for _, call := range m.Calls {
		if call.Method == "CreateEvent" {
			reqs = append(reqs, call.Arguments.Get(1).(*gateway.CreateEventRequest))
		}
	}
	return reqs
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(_ context.Context, events ...event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) recorded() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Event(nil), p.events...)
}

type failingPublisher struct{ err error }

func (p failingPublisher) Publish(context.Context, ...event.Event) error { return p.err }

var (
	testNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	musoraScope = entity.Scope{WorkspaceName: "Musora", WorkspaceID: "1", SiteID: "site-musora"}
	singeoScope = entity.Scope{WorkspaceName: "Singeo", WorkspaceID: "2", SiteID: "site-singeo"}
)

func testCatalog() *config.Catalog {
	return &config.Catalog{
		Accounts: map[string]config.AccountConfig{
			"musora": {WorkspaceName: "Musora", WorkspaceID: "1", SiteID: "site-musora", TrackAPIKey: "track-musora", AppAPIKey: "app-musora"},
			"singeo": {WorkspaceName: "Singeo", WorkspaceID: "2", SiteID: "site-singeo", TrackAPIKey: "track-singeo", AppAPIKey: "app-singeo"},
		},
		Forms: map[string]config.FormConfig{
			"Example Form Name": {
				CustomAttributes: map[string]string{"example_form_name_submitted": "true"},
				EventsToTrigger:  []string{"example_event_one", "example_event_two"},
				AccountsToSync:   []string{"musora", "singeo"},
			},
		},
		FormsEventsUTMParameters: map[string]string{
			"utm_source":   "source",
			"utm_campaign": "campaign",
		},
		UserIDAttributeName: config.DefaultUserIDAttributeName,
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Customer{}))
	return db
}

type testEnv struct {
	svc       *CustomerSyncService
	repo      repository.CustomerRepository
	gateway   *MockCustomerGateway
	publisher *recordingPublisher
	catalog   *config.Catalog
	registry  *AccountRegistry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	catalog := testCatalog()
	registry := NewAccountRegistry(catalog.Accounts)
	repo := adapterRepo.NewCustomerRepository(setupTestDB(t))
	gw := new(MockCustomerGateway)
	publisher := &recordingPublisher{}

	svc := NewCustomerSyncService(registry, repo, gw, publisher, catalog, Options{
		SettlePolicy: fastPolicy(3),
		Clock:        func() time.Time { return testNow },
	}, zap.NewNop())

	return &testEnv{
		svc:       svc,
		repo:      repo,
		gateway:   gw,
		publisher: publisher,
		catalog:   catalog,
		registry:  registry,
	}
}

// seed inserts a synced customer directly, bypassing the remote.
func (e *testEnv) seed(t *testing.T, scope entity.Scope, externalID, email, userID string) *entity.Customer {
	t.Helper()
	customer := &entity.Customer{
		Scope:      scope,
		ExternalID: externalID,
		Email:      email,
		UserID:     userID,
		CreatedAt:  testNow.Add(-time.Hour),
		UpdatedAt:  testNow.Add(-time.Hour),
		SyncStatus: entity.SyncStatusSynced,
	}
	require.NoError(t, e.repo.Insert(context.Background(), customer))
	return customer
}
