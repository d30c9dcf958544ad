// Package events carries domain events between modules. Publishers raise
// events without knowing who listens; modules subscribe to the event names
// they care about.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName identifies the event type; subscriptions key on it.
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp common to all events. Embed it and add
// the event's own fields.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler processes events of one subscribed type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events to subscribed handlers.
type Bus interface {
	// Publish dispatches to all handlers for the event's name without
	// waiting for them.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches and waits; the first handler error comes back.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under the name the event type returns
	// from EventName.
	Subscribe(eventName string, handler Handler)
}
