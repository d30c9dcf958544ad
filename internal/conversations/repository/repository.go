package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"recruitflow_backend/internal/conversations/domain"
	"recruitflow_backend/platform/apperr"
)

// Conversation is a message thread with one external party over one channel.
// Uniqueness is enforced on (organization, channel, origin, recipient) so
// repeated sends to the same person reuse the same thread.
type Conversation struct {
	ID               uuid.UUID      `json:"id"`
	OrganizationID   uuid.UUID      `json:"organizationId"`
	ApplicantID      *uuid.UUID     `json:"applicantId,omitempty"`
	Channel          domain.Channel `json:"channel"`
	OriginAddress    string         `json:"originAddress"`
	RecipientAddress string         `json:"recipientAddress"`
	CreatedAt        string         `json:"createdAt"`
	UpdatedAt        string         `json:"updatedAt"`
}

// Message is one entry in a conversation's log.
type Message struct {
	ID                uuid.UUID        `json:"id"`
	ConversationID    uuid.UUID        `json:"conversationId"`
	OrganizationID    uuid.UUID        `json:"organizationId"`
	Direction         domain.Direction `json:"direction"`
	Sender            string           `json:"sender"`
	Body              string           `json:"body"`
	Status            domain.Status    `json:"status"`
	ProviderMessageID string           `json:"providerMessageId,omitempty"`
	CreatedAt         string           `json:"createdAt"`
}

// GetOrCreateParams identify a conversation thread.
type GetOrCreateParams struct {
	OrganizationID   uuid.UUID
	ApplicantID      *uuid.UUID
	Channel          domain.Channel
	OriginAddress    string
	RecipientAddress string
}

// AppendMessageParams are the fields for logging one message.
type AppendMessageParams struct {
	ConversationID    uuid.UUID
	Direction         domain.Direction
	Sender            string
	Body              string
	Status            domain.Status
	ProviderMessageID string
}

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new conversations repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const conversationColumns = `id, organization_id, applicant_id, channel, origin_address, recipient_address, created_at, updated_at`

func scanConversation(row pgx.Row) (Conversation, error) {
	var conv Conversation
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&conv.ID, &conv.OrganizationID, &conv.ApplicantID, &conv.Channel,
		&conv.OriginAddress, &conv.RecipientAddress, &createdAt, &updatedAt,
	)
	if err != nil {
		return Conversation{}, err
	}

	conv.CreatedAt = createdAt.Format(time.RFC3339)
	conv.UpdatedAt = updatedAt.Format(time.RFC3339)
	return conv, nil
}

// GetOrCreate upserts the conversation row. The DO UPDATE on conflict is a
// no-op touch so RETURNING always yields the row, whether it existed or not.
func (r *Repo) GetOrCreate(ctx context.Context, params GetOrCreateParams) (Conversation, error) {
	query := `
		INSERT INTO conversations (organization_id, applicant_id, channel, origin_address, recipient_address)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (organization_id, channel, origin_address, recipient_address)
		DO UPDATE SET updated_at = now()
		RETURNING ` + conversationColumns

	conv, err := scanConversation(r.pool.QueryRow(ctx, query,
		params.OrganizationID, params.ApplicantID, params.Channel,
		params.OriginAddress, params.RecipientAddress,
	))
	if err != nil {
		return Conversation{}, fmt.Errorf("get or create conversation: %w", err)
	}

	return conv, nil
}

// GetByID retrieves a conversation scoped to the organization.
func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1 AND organization_id = $2`

	conv, err := scanConversation(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conversation{}, apperr.NotFound("conversation not found")
		}
		return Conversation{}, fmt.Errorf("get conversation by id: %w", err)
	}

	return conv, nil
}

// ListByOrganization retrieves the organization's conversations, most
// recently touched first.
func (r *Repo) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE organization_id = $1
		ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var results []Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		results = append(results, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	return results, nil
}

// AppendMessage logs one message on the conversation and touches the thread's
// updated_at.
func (r *Repo) AppendMessage(ctx context.Context, params AppendMessageParams) (Message, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("begin append message: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		INSERT INTO messages (conversation_id, direction, sender, body, status, provider_message_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING id, created_at`

	var msg Message
	var createdAt time.Time
	err = tx.QueryRow(ctx, query,
		params.ConversationID, params.Direction, params.Sender,
		params.Body, params.Status, params.ProviderMessageID,
	).Scan(&msg.ID, &createdAt)
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE conversations SET updated_at = now() WHERE id = $1`, params.ConversationID)
	if err != nil {
		return Message{}, fmt.Errorf("touch conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Message{}, fmt.Errorf("commit append message: %w", err)
	}

	msg.ConversationID = params.ConversationID
	msg.Direction = params.Direction
	msg.Sender = params.Sender
	msg.Body = params.Body
	msg.Status = params.Status
	msg.ProviderMessageID = params.ProviderMessageID
	msg.CreatedAt = createdAt.Format(time.RFC3339)

	return msg, nil
}

// UpdateStatusByProviderID repoints the logged message's delivery status. The
// provider message ID is the idempotency key: replaying the same callback
// rewrites the same row to the same value.
func (r *Repo) UpdateStatusByProviderID(ctx context.Context, providerMessageID string, status domain.Status) (Message, error) {
	query := `
		UPDATE messages m
		SET status = $2
		FROM conversations c
		WHERE m.provider_message_id = $1 AND c.id = m.conversation_id
		RETURNING m.id, m.conversation_id, c.organization_id, m.direction, m.sender,
		          m.body, m.status, COALESCE(m.provider_message_id, ''), m.created_at`

	var msg Message
	var createdAt time.Time
	err := r.pool.QueryRow(ctx, query, providerMessageID, status).Scan(
		&msg.ID, &msg.ConversationID, &msg.OrganizationID, &msg.Direction, &msg.Sender,
		&msg.Body, &msg.Status, &msg.ProviderMessageID, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, apperr.NotFound("no message logged for provider message id")
		}
		return Message{}, fmt.Errorf("update message status: %w", err)
	}

	msg.CreatedAt = createdAt.Format(time.RFC3339)
	return msg, nil
}

// ListMessages retrieves a conversation's log oldest first, after checking the
// conversation belongs to the organization.
func (r *Repo) ListMessages(ctx context.Context, organizationID, conversationID uuid.UUID) ([]Message, error) {
	if _, err := r.GetByID(ctx, organizationID, conversationID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, conversation_id, direction, sender, body, status,
		       COALESCE(provider_message_id, ''), created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var results []Message
	for rows.Next() {
		var msg Message
		var createdAt time.Time
		err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.Direction, &msg.Sender,
			&msg.Body, &msg.Status, &msg.ProviderMessageID, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.OrganizationID = organizationID
		msg.CreatedAt = createdAt.Format(time.RFC3339)
		results = append(results, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return results, nil
}

// FindByRecipientMatchKey fuzzy-matches an inbound sender number against
// conversation recipients by comparing significant digits. Formatting noise
// ("+1 (555) 555-1234" vs "5555551234") is stripped on both sides. A non-empty
// originKey additionally pins the thread to the receiving company number.
// Newest thread wins when several match.
func (r *Repo) FindByRecipientMatchKey(ctx context.Context, matchKey, originKey string) (Conversation, error) {
	if matchKey == "" {
		return Conversation{}, apperr.NotFound("empty match key")
	}

	query := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE channel = 'sms'
		  AND RIGHT(REGEXP_REPLACE(recipient_address, '\D', '', 'g'), LENGTH($1)) = $1
		  AND ($2 = '' OR RIGHT(REGEXP_REPLACE(origin_address, '\D', '', 'g'), LENGTH($2)) = $2)
		ORDER BY created_at DESC
		LIMIT 1`

	conv, err := scanConversation(r.pool.QueryRow(ctx, query, matchKey, originKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conversation{}, apperr.NotFound("no conversation matches sender")
		}
		return Conversation{}, fmt.Errorf("find conversation by match key: %w", err)
	}

	return conv, nil
}
