package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/railroadmedia/customer-io/internal/domain/model"
)

// Migrate creates or updates the customer table and its lookup indexes.
// It works against postgres and sqlite.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.AutoMigrate(&model.Customer{}); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// Every lookup is scoped to the workspace triple, so each key gets a
// composite index that leads with it. Pending rows are indexed for the
// reconciler.
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_customer_io_customers_scope_uuid ON customer_io_customers (workspace_name, workspace_id, site_id, uuid)`,
		`CREATE INDEX IF NOT EXISTS idx_customer_io_customers_scope_email ON customer_io_customers (workspace_name, workspace_id, site_id, email)`,
		`CREATE INDEX IF NOT EXISTS idx_customer_io_customers_scope_user_id ON customer_io_customers (workspace_name, workspace_id, site_id, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_customer_io_customers_pending ON customer_io_customers (updated_at) WHERE sync_status = 'pending_sync'`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
