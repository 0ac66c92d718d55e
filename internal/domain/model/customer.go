package model

import (
	"time"

	"gorm.io/gorm"
)

// Customer is the customer_io_customers row. The uuid column holds the
// external id shared with customer.io.
type Customer struct {
	InternalID        int64          `gorm:"column:internal_id;primaryKey;autoIncrement"`
	UUID              string         `gorm:"column:uuid;size:64;not null;uniqueIndex"`
	Email             string         `gorm:"size:255;index"`
	UserID            *string        `gorm:"column:user_id;size:64;index"`
	WorkspaceName     string         `gorm:"size:255;not null;index"`
	WorkspaceID       string         `gorm:"size:255;not null;index"`
	SiteID            string         `gorm:"size:255;not null;index"`
	SyncStatus        string         `gorm:"size:32;not null;default:synced;index"`
	SyncAttempts      int            `gorm:"not null;default:0"`
	LastSyncError     string         `gorm:"type:text"`
	PendingAttributes string         `gorm:"type:text"`
	CreatedAt         time.Time      `gorm:"autoCreateTime:false;index"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime:false;index"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (Customer) TableName() string {
	return "customer_io_customers"
}
