package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/railroadmedia/customer-io/internal/domain/entity"
	domainErrors "github.com/railroadmedia/customer-io/internal/domain/errors"
	"github.com/railroadmedia/customer-io/internal/domain/model"
	"github.com/railroadmedia/customer-io/internal/domain/repository"
)

var (
	musora = entity.Scope{WorkspaceName: "Musora", WorkspaceID: "1", SiteID: "site-musora"}
	singeo = entity.Scope{WorkspaceName: "Singeo", WorkspaceID: "2", SiteID: "site-singeo"}
)

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

func newCustomer(scope entity.Scope, externalID, email, userID string) *entity.Customer {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &entity.Customer{
		Scope:      scope,
		ExternalID: externalID,
		Email:      email,
		UserID:     userID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func insert(t *testing.T, repo repository.CustomerRepository, c *entity.Customer) *entity.Customer {
	t.Helper()
	require.NoError(t, repo.Insert(context.Background(), c))
	return c
}

func TestCustomerRepository_InsertAndFind(t *testing.T) {
	repo := NewCustomerRepository(setupTestDB(t))
	ctx := context.Background()

	c := insert(t, repo, newCustomer(musora, "ext-1", "a@x.com", "42"))
	assert.NotZero(t, c.InternalID)
	assert.Equal(t, entity.SyncStatusSynced, c.SyncStatus)

	byID, err := repo.FindByExternalID(ctx, musora, "ext-1")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, c.InternalID, byID.InternalID)
	assert.Equal(t, "a@x.com", byID.Email)
	assert.Equal(t, "42", byID.UserID)
	assert.Equal(t, musora, byID.Scope)
	assert.True(t, c.CreatedAt.Equal(byID.CreatedAt))

	byEmail, err := repo.FindByEmail(ctx, musora, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "ext-1", byEmail.ExternalID)

	byUser, err := repo.FindByUserID(ctx, musora, "42")
	require.NoError(t, err)
	require.NotNil(t, byUser)
	assert.Equal(t, "ext-1", byUser.ExternalID)
}

func TestCustomerRepository_LookupsAreScoped(t *testing.T) {
	repo := NewCustomerRepository(setupTestDB(t))
	ctx := context.Background()

	insert(t, repo, newCustomer(musora, "ext-1", "a@x.com", "42"))

	tests := []struct {
		name   string
		lookup func() (*entity.Customer, error)
	}{
		{"external id in other workspace", func() (*entity.Customer, error) { return repo.FindByExternalID(ctx, singeo, "ext-1") }},
		{"email in other workspace", func() (*entity.Customer, error) { return repo.FindByEmail(ctx, singeo, "a@x.com") }},
		{"user id in other workspace", func() (*entity.Customer, error) { return repo.FindByUserID(ctx, singeo, "42") }},
		{"same name different site", func() (*entity.Customer, error) {
			return repo.FindByEmail(ctx, entity.Scope{WorkspaceName: "Musora", WorkspaceID: "1", SiteID: "other"}, "a@x.com")
		}},
		{"unknown email", func() (*entity.Customer, error) { return repo.FindByEmail(ctx, musora, "b@x.com") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := tt.lookup()
			assert.NoError(t, err)
			assert.Nil(t, found)
		})
	}
}

func TestCustomerRepository_FindByEmailReturnsFirstInserted(t *testing.T) {
	repo := NewCustomerRepository(setupTestDB(t))

	first := insert(t, repo, newCustomer(musora, "ext-1", "shared@x.com", ""))
	insert(t, repo, newCustomer(musora, "ext-2", "shared@x.com", ""))

	found, err := repo.FindByEmail(context.Background(), musora, "shared@x.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ExternalID, found.ExternalID)
}

func TestCustomerRepository_InsertDuplicateExternalID(t *testing.T) {
	repo := NewCustomerRepository(setupTestDB(t))

	insert(t, repo, newCustomer(musora, "ext-1", "a@x.com", ""))
	err := repo.Insert(context.Background(), newCustomer(singeo, "ext-1", "b@x.com", ""))

	require.Error(t, err)
	assert.True(t, domainErrors.IsType(err, domainErrors.ErrTypePersistence))
}

func TestCustomerRepository_Update(t *testing.T) {
	repo := NewCustomerRepository(setupTestDB(t))
	ctx := context.Background()

	c := insert(t, repo, newCustomer(musora, "ext-1", "a@x.com", ""))
	later := c.UpdatedAt.Add(time.Hour)

	c.Email = "new@x.com"
	c.UserID = "7"
	c.UpdatedAt = later
	c.SyncStatus = entity.SyncStatusPending
	c.SyncAttempts = 2
	c.LastSyncError = "boom"
	c.PendingAttributes = map[string]any{"plan": "pro", "age": float64(3)}
	require.NoError(t, repo.Update(ctx, c))

	found, err := repo.FindByExternalID(ctx, musora, "ext-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "new@x.com", found.Email)
	assert.Equal(t, "7", found.UserID)
	assert.True(t, later.Equal(found.UpdatedAt))
	assert.Equal(t, entity.SyncStatusPending, found.SyncStatus)
	assert.Equal(t, 2, found.SyncAttempts)
	assert.Equal(t, "boom", found.LastSyncError)
	assert.Equal(t, map[string]any{"plan": "pro", "age": float64(3)}, found.PendingAttributes)

	c.SyncStatus = entity.SyncStatusSynced
	c.PendingAttributes = nil
	c.UserID = ""
	require.NoError(t, repo.Update(ctx, c))

	found, err = repo.FindByExternalID(ctx, musora, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, entity.SyncStatusSynced, found.SyncStatus)
	assert.Nil(t, found.PendingAttributes)
	assert.Empty(t, found.UserID)
}

func TestCustomerRepository_UpdateMissingRow(t *testing.T) {
	repo := NewCustomerRepository(setupTestDB(t))

	c := newCustomer(musora, "ext-1", "a@x.com", "")
	c.InternalID = 99
	err := repo.Update(context.Background(), c)

	require.Error(t, err)
	assert.True(t, domainErrors.IsType(err, domainErrors.ErrTypePersistence))
}

func TestCustomerRepository_SoftDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	c := insert(t, repo, newCustomer(musora, "ext-1", "a@x.com", "42"))
	deletedAt := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	c.DeletedAt = &deletedAt
	require.NoError(t, repo.SoftDelete(ctx, c))

	found, err := repo.FindByExternalID(ctx, musora, "ext-1")
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = repo.FindByEmail(ctx, musora, "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, found)

	var row model.Customer
	require.NoError(t, db.Unscoped().Where("uuid = ?", "ext-1").First(&row).Error)
	assert.True(t, row.DeletedAt.Valid)
	assert.True(t, deletedAt.Equal(row.DeletedAt.Time))

	err = repo.SoftDelete(ctx, c)
	assert.Error(t, err, "deleting an already deleted row should fail")
}

func TestCustomerRepository_HardDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db)

	c := insert(t, repo, newCustomer(musora, "ext-1", "a@x.com", ""))
	require.NoError(t, repo.HardDelete(context.Background(), c))

	var count int64
	require.NoError(t, db.Unscoped().Model(&model.Customer{}).Where("uuid = ?", "ext-1").Count(&count).Error)
	assert.Zero(t, count)
}

func TestCustomerRepository_FindPendingSync(t *testing.T) {
	repo := NewCustomerRepository(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"ext-1", "ext-2", "ext-3", "ext-4", "ext-5"} {
		c := newCustomer(musora, id, id+"@x.com", "")
		c.UpdatedAt = base.Add(time.Duration(5-i) * time.Minute)
		if id != "ext-2" {
			c.SyncStatus = entity.SyncStatusPending
			c.PendingAttributes = map[string]any{"n": float64(i)}
		}
		if id == "ext-5" {
			c.SyncAttempts = 3
		}
		insert(t, repo, c)
	}

	pending, err := repo.FindPendingSync(ctx, 2, 3)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "ext-4", pending[0].ExternalID)
	assert.Equal(t, "ext-3", pending[1].ExternalID)
	assert.Equal(t, map[string]any{"n": float64(3)}, pending[0].PendingAttributes)

	all, err := repo.FindPendingSync(ctx, 10, 3)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	withRetriesLeft, err := repo.FindPendingSync(ctx, 10, 4)
	require.NoError(t, err)
	require.Len(t, withRetriesLeft, 4)
	assert.Equal(t, "ext-5", withRetriesLeft[0].ExternalID)
}
