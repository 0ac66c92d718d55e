package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/railroadmedia/customer-io/internal/domain/entity"
)

const (
	TypeCustomerCreated = "customer.created"
	TypeCustomerUpdated = "customer.updated"
)

// Event is a domain notification raised after a customer has been synced.
type Event interface {
	EventID() string
	EventType() string
	OccurredAt() time.Time
}

type base struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	At   time.Time `json:"occurred_at"`
}

func (b base) EventID() string       { return b.ID }
func (b base) EventType() string     { return b.Type }
func (b base) OccurredAt() time.Time { return b.At }

func newBase(eventType string, at time.Time) base {
	return base{ID: uuid.NewString(), Type: eventType, At: at}
}

type CustomerCreated struct {
	base
	Customer *entity.Customer `json:"customer"`
}

func NewCustomerCreated(customer *entity.Customer, at time.Time) *CustomerCreated {
	return &CustomerCreated{base: newBase(TypeCustomerCreated, at), Customer: customer.Clone()}
}

// CustomerUpdated carries the row before and after the update.
type CustomerUpdated struct {
	base
	Old *entity.Customer `json:"old"`
	New *entity.Customer `json:"new"`
}

func NewCustomerUpdated(old, updated *entity.Customer, at time.Time) *CustomerUpdated {
	return &CustomerUpdated{base: newBase(TypeCustomerUpdated, at), Old: old.Clone(), New: updated.Clone()}
}

// Publisher fans events out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Handler receives published events.
type Handler interface {
	Handle(ctx context.Context, evt Event) error
}

type HandlerFunc func(ctx context.Context, evt Event) error

func (f HandlerFunc) Handle(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}
