package gateway

import (
	"context"
	"time"

	"github.com/railroadmedia/customer-io/internal/domain/entity"
)

// DefaultActivitiesLimit is the page size used when none is requested.
const DefaultActivitiesLimit = 10

// TrackAuth authenticates Track API calls (basic auth, site id and key).
type TrackAuth struct {
	SiteID      string
	TrackAPIKey string
}

func TrackAuthFor(account *entity.Account) TrackAuth {
	return TrackAuth{SiteID: account.SiteID, TrackAPIKey: account.TrackAPIKey}
}

type UpsertCustomerRequest struct {
	TrackAuth
	ExternalID string
	Email      string
	// Attributes with a nil value are cleared on the remote profile.
	Attributes map[string]any
	CreatedAt  *time.Time
}

type CreateEventRequest struct {
	TrackAuth
	ExternalID string
	Name       string
	Data       map[string]any
	Type       string
	Timestamp  *time.Time
}

type ActivitiesRequest struct {
	AppAPIKey  string
	ExternalID string
	Type       string
	Name       string
	Limit      int
	Start      string
}

type TransactionalEmailRequest struct {
	AppAPIKey   string
	MessageID   string
	To          string
	ExternalID  string
	MessageData map[string]any
}

type AddDeviceRequest struct {
	TrackAuth
	ExternalID string
	Device     entity.Device
}

type MergeCustomersRequest struct {
	TrackAuth
	PrimaryID   string
	SecondaryID string
}

type DeleteCustomerRequest struct {
	TrackAuth
	ExternalID string
}

// CustomerGateway talks to the remote customer.io workspace. A call only
// succeeds when the remote answers with an empty body; any other answer is
// a RemoteAPI error. GetCustomer fails with NotFound when the remote has no
// such profile.
type CustomerGateway interface {
	UpsertCustomer(ctx context.Context, req *UpsertCustomerRequest) error
	GetCustomer(ctx context.Context, appAPIKey, externalID string) (*entity.RemoteCustomer, error)
	CreateEvent(ctx context.Context, req *CreateEventRequest) error
	GetActivities(ctx context.Context, req *ActivitiesRequest) (*entity.ActivityPage, error)
	// SendTransactionalEmail returns the delivery id assigned by the remote.
	SendTransactionalEmail(ctx context.Context, req *TransactionalEmailRequest) (string, error)
	AddDevice(ctx context.Context, req *AddDeviceRequest) error
	MergeCustomers(ctx context.Context, req *MergeCustomersRequest) error
	DeleteCustomer(ctx context.Context, req *DeleteCustomerRequest) error
}
