// Package gateway adapts external messaging providers behind one interface so
// the sync service never talks to a provider SDK directly.
package gateway

import (
	"context"

	"recruitflow_backend/internal/conversations/domain"
)

// SendResult is the tagged outcome of a provider send. Ok distinguishes an
// accepted message from a rejected one; rejected sends still carry the
// provider's detail so the failure can be logged on the message.
type SendResult struct {
	Ok                bool
	ProviderMessageID string
	Status            domain.Status
	Detail            string
}

// Accepted builds the result for a send the provider took responsibility for.
func Accepted(providerMessageID string, status domain.Status) SendResult {
	return SendResult{Ok: true, ProviderMessageID: providerMessageID, Status: status}
}

// Rejected builds the result for a send the provider refused.
func Rejected(detail string) SendResult {
	return SendResult{Ok: false, Status: domain.StatusFailed, Detail: detail}
}

// Message is a channel-agnostic outbound message.
type Message struct {
	To      string
	From    string
	Subject string
	Body    string
}

// Gateway sends messages over one channel. Implementations return an error
// only for transport failures; provider-level rejections come back as a
// rejected SendResult.
type Gateway interface {
	Channel() domain.Channel
	Send(ctx context.Context, msg Message) (SendResult, error)
}
