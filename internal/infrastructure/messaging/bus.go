package messaging

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/domain/event"
)

// EventBus dispatches domain events to in-process subscribers synchronously.
// A failing or panicking handler is logged and does not stop the others.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]event.Handler
	logger   *zap.Logger
}

var _ event.Publisher = (*EventBus)(nil)

func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]event.Handler),
		logger:   logger,
	}
}

// Subscribe registers handler for the given event types.
func (b *EventBus) Subscribe(handler event.Handler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, eventType := range eventTypes {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
	}
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *EventBus) Publish(ctx context.Context, events ...event.Event) error {
	for _, evt := range events {
		b.mu.RLock()
		handlers := append([]event.Handler(nil), b.handlers[evt.EventType()]...)
		b.mu.RUnlock()

		for _, handler := range handlers {
			if err := b.dispatch(ctx, handler, evt); err != nil {
				b.logger.Error("Event handler failed",
					zap.String("event_type", evt.EventType()),
					zap.String("event_id", evt.EventID()),
					zap.Error(err))
			}
		}
	}
	return nil
}

func (b *EventBus) dispatch(ctx context.Context, handler event.Handler, evt event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				zap.String("event_type", evt.EventType()),
				zap.Any("panic", r))
		}
	}()
	return handler.Handle(ctx, evt)
}
