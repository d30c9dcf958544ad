package repository

import (
	"context"

	"github.com/google/uuid"

	"recruitflow_backend/internal/conversations/domain"
)

// Repository is the persistence contract for conversations and their message
// logs. Defined as an interface so the sync service can be exercised against
// fakes.
type Repository interface {
	// GetOrCreate returns the conversation for (channel, origin, recipient)
	// within the organization, creating it if absent. The unique constraint
	// makes concurrent calls converge on one row.
	GetOrCreate(ctx context.Context, params GetOrCreateParams) (Conversation, error)
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (Conversation, error)
	ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]Conversation, error)
	AppendMessage(ctx context.Context, params AppendMessageParams) (Message, error)
	// UpdateStatusByProviderID updates the delivery status of the message the
	// provider assigned this ID to. Returns not found when no such message has
	// been logged yet.
	UpdateStatusByProviderID(ctx context.Context, providerMessageID string, status domain.Status) (Message, error)
	// ListMessages returns the conversation's messages ordered oldest first.
	ListMessages(ctx context.Context, organizationID, conversationID uuid.UUID) ([]Message, error)
	// FindByRecipientMatchKey returns the most recently created SMS
	// conversation whose recipient's significant digits end with the match
	// key, across organizations. Webhooks carry no tenant context; a
	// non-empty originKey narrows the search to threads sent from the
	// matching company number.
	FindByRecipientMatchKey(ctx context.Context, matchKey, originKey string) (Conversation, error)
}
