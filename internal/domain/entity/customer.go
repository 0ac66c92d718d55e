package entity

import "time"

type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusPending SyncStatus = "pending_sync"
)

// Customer is the local mirror row for one remote customer.io customer.
// ExternalID is the identifier used on the remote side and never changes.
type Customer struct {
	Scope

	InternalID int64      `json:"internal_id"`
	ExternalID string     `json:"uuid"`
	Email      string     `json:"email"`
	UserID     string     `json:"user_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`

	// SyncStatus is pending_sync when the last remote push failed. The
	// payload that failed is kept in PendingAttributes until it is replayed.
	SyncStatus        SyncStatus     `json:"sync_status"`
	SyncAttempts      int            `json:"sync_attempts"`
	LastSyncError     string         `json:"last_sync_error,omitempty"`
	PendingAttributes map[string]any `json:"pending_attributes,omitempty"`
}

func (c *Customer) IsPending() bool {
	return c.SyncStatus == SyncStatusPending
}

// Clone returns a deep copy, used to keep the pre-update state of a row.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	clone := *c
	if c.DeletedAt != nil {
		deletedAt := *c.DeletedAt
		clone.DeletedAt = &deletedAt
	}
	if c.PendingAttributes != nil {
		clone.PendingAttributes = make(map[string]any, len(c.PendingAttributes))
		for k, v := range c.PendingAttributes {
			clone.PendingAttributes[k] = v
		}
	}
	return &clone
}

// CustomerView is a local row joined with the remote profile.
type CustomerView struct {
	Customer   *Customer                 `json:"customer"`
	Attributes map[string]AttributeValue `json:"attributes"`
	Devices    []Device                  `json:"devices"`
}
