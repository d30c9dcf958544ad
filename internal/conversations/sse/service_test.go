package sse

import (
	"testing"

	"github.com/google/uuid"

	"recruitflow_backend/platform/logger"
)

func TestHubPublishReachesOrgClientsOnly(t *testing.T) {
	hub := NewHub(logger.New("development"))
	orgA := uuid.New()
	orgB := uuid.New()

	clientA := &client{orgID: orgA, events: make(chan Event, 4)}
	clientB := &client{orgID: orgB, events: make(chan Event, 4)}
	hub.addClient(clientA)
	hub.addClient(clientB)

	event := Event{
		Type:           EventMessageAdded,
		ConversationID: uuid.New(),
		MessageID:      uuid.New(),
	}
	hub.Publish(orgA, event)

	select {
	case got := <-clientA.events:
		if got.MessageID != event.MessageID {
			t.Errorf("got message %s, want %s", got.MessageID, event.MessageID)
		}
	default:
		t.Fatal("org A client received nothing")
	}

	select {
	case <-clientB.events:
		t.Error("event leaked to another organization")
	default:
	}
}

func TestHubScopedClientSeesOnlyItsConversation(t *testing.T) {
	hub := NewHub(logger.New("development"))
	orgID := uuid.New()
	convID := uuid.New()

	scoped := &client{orgID: orgID, convID: convID, events: make(chan Event, 4)}
	broad := &client{orgID: orgID, events: make(chan Event, 4)}
	hub.addClient(scoped)
	hub.addClient(broad)

	hub.Publish(orgID, Event{Type: EventMessageAdded, ConversationID: convID})
	hub.Publish(orgID, Event{Type: EventMessageAdded, ConversationID: uuid.New()})

	if got := len(scoped.events); got != 1 {
		t.Errorf("scoped client got %d events, want 1", got)
	}
	if got := len(broad.events); got != 2 {
		t.Errorf("broad client got %d events, want 2", got)
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(logger.New("development"))
	orgID := uuid.New()

	cl := &client{orgID: orgID, events: make(chan Event, 1)}
	hub.addClient(cl)

	hub.Publish(orgID, Event{Type: EventMessageAdded})
	// Buffer is full now; this publish must not block.
	hub.Publish(orgID, Event{Type: EventStatusChanged})

	if len(cl.events) != 1 {
		t.Errorf("buffered events = %d, want 1", len(cl.events))
	}
}

func TestHubRemoveClientClosesChannel(t *testing.T) {
	hub := NewHub(logger.New("development"))
	cl := &client{orgID: uuid.New(), events: make(chan Event, 1)}
	hub.addClient(cl)
	hub.removeClient(cl)

	if _, ok := <-cl.events; ok {
		t.Error("channel still open after removal")
	}

	// Publishing to an org with no clients is a no-op.
	hub.Publish(cl.orgID, Event{Type: EventMessageAdded})
}

func TestHubCloseWithOpenStreams(t *testing.T) {
	hub := NewHub(logger.New("development"))
	cl := &client{orgID: uuid.New(), events: make(chan Event, 1)}
	hub.addClient(cl)

	hub.Close()

	// The stream handler's deferred removal runs after shutdown has already
	// closed the channel; it must not close it a second time.
	hub.removeClient(cl)

	if _, ok := <-cl.events; ok {
		t.Error("channel still open after close")
	}
}
