package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/railroadmedia/customer-io/internal/domain/entity"
)

func TestMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db, zap.NewNop()))
	require.NoError(t, Migrate(db, zap.NewNop()), "migrations are repeatable")

	for _, index := range []string{
		"idx_customer_io_customers_scope_uuid",
		"idx_customer_io_customers_scope_email",
		"idx_customer_io_customers_scope_user_id",
		"idx_customer_io_customers_pending",
	} {
		assert.True(t, db.Migrator().HasIndex("customer_io_customers", index), index)
	}

	repos := NewRepositories(db)
	scope := entity.Scope{WorkspaceName: "Musora", WorkspaceID: "1", SiteID: "site-musora"}
	require.NoError(t, repos.Customer.Insert(context.Background(), &entity.Customer{Scope: scope, ExternalID: "abc", Email: "kerry@example.com"}))

	found, err := repos.Customer.FindByEmail(context.Background(), scope, "kerry@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "abc", found.ExternalID)
}
