package messaging

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/domain/event"
	"github.com/railroadmedia/customer-io/pkg/messaging"
)

const DefaultChannel = "customer-io.events"

// envelope is the JSON document published for every event.
type envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    event.Event `json:"payload"`
}

// RedisForwarder republishes domain events on a Redis pub/sub channel so
// other services can react to customer changes.
type RedisForwarder struct {
	publisher messaging.Publisher
	channel   string
	logger    *zap.Logger
}

func NewRedisForwarder(publisher messaging.Publisher, channel string, logger *zap.Logger) *RedisForwarder {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisForwarder{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
	}
}

// EventTypes lists the events worth forwarding.
func (f *RedisForwarder) EventTypes() []string {
	return []string{event.TypeCustomerCreated, event.TypeCustomerUpdated}
}

func (f *RedisForwarder) Handle(ctx context.Context, evt event.Event) error {
	msg := envelope{
		ID:         evt.EventID(),
		Type:       evt.EventType(),
		OccurredAt: evt.OccurredAt(),
		Payload:    evt,
	}
	if err := f.publisher.Publish(ctx, f.channel, msg); err != nil {
		return err
	}

	f.logger.Debug("Forwarded event to redis",
		zap.String("channel", f.channel),
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID()))
	return nil
}
