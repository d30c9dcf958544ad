// Package ports declares the interfaces the conversations module requires
// from infrastructure it does not own.
package ports

import (
	"context"

	"github.com/google/uuid"

	"recruitflow_backend/internal/conversations/sse"
)

// StatusRetryScheduler defers a provider status callback that arrived before
// its message was logged. The retry runs once after a short delay; if the
// message is still unknown then, the status is dropped.
type StatusRetryScheduler interface {
	EnqueueStatusRetry(ctx context.Context, providerMessageID, status string) error
}

// EventPublisher fans a realtime stream event out to every API replica's
// hub, including the publishing replica's own.
type EventPublisher interface {
	PublishEvent(ctx context.Context, organizationID uuid.UUID, event sse.Event) error
}
