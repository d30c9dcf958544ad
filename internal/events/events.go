package events

import (
	platformevents "recruitflow_backend/platform/events"

	"github.com/google/uuid"
)

// ConversationMessageAdded is published whenever a message is appended to a
// conversation, inbound or outbound. SSE subscribers use it to push live
// updates; subscribers deduplicate by MessageID since a sender's own UI can
// receive the message both from the direct response and from this event.
type ConversationMessageAdded struct {
	platformevents.BaseEvent
	OrganizationID uuid.UUID
	ConversationID uuid.UUID
	MessageID      uuid.UUID
	Channel        string
	Direction      string
}

// EventName returns the unique identifier for this event type.
func (e ConversationMessageAdded) EventName() string { return "conversation.message_added" }

// MessageStatusChanged is published when a provider status callback updates a
// logged message's delivery status.
type MessageStatusChanged struct {
	platformevents.BaseEvent
	OrganizationID    uuid.UUID
	ConversationID    uuid.UUID
	MessageID         uuid.UUID
	ProviderMessageID string
	Status            string
}

// EventName returns the unique identifier for this event type.
func (e MessageStatusChanged) EventName() string { return "conversation.message_status_changed" }

// ApplicantStageChanged is published after a bucket-membership row is moved
// to a new bucket.
type ApplicantStageChanged struct {
	platformevents.BaseEvent
	OrganizationID uuid.UUID
	JobID          uuid.UUID
	ApplicantID    uuid.UUID
	BucketID       uuid.UUID
	Stage          string
}

// EventName returns the unique identifier for this event type.
func (e ApplicantStageChanged) EventName() string { return "applicant.stage_changed" }
