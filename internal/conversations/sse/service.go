// Package sse streams conversation updates to connected clients over
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"recruitflow_backend/platform/httpkit"
	"recruitflow_backend/platform/logger"
)

// EventType labels a stream event.
type EventType string

const (
	EventMessageAdded  EventType = "message_added"
	EventStatusChanged EventType = "status_changed"
)

// Event is an SSE payload. Clients deduplicate by MessageID; the sender's own
// UI receives its message both from the send response and from the stream.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID uuid.UUID `json:"conversationId"`
	MessageID      uuid.UUID `json:"messageId"`
	Channel        string    `json:"channel,omitempty"`
	Direction      string    `json:"direction,omitempty"`
	Status         string    `json:"status,omitempty"`
}

// client is one open stream. A zero convID means the stream carries every
// conversation in the organization; otherwise only the matching thread.
type client struct {
	orgID  uuid.UUID
	convID uuid.UUID
	events chan Event
	once   sync.Once
}

// close is safe to call from both the stream's own teardown and Hub.Close;
// whichever runs second is a no-op.
func (c *client) close() {
	c.once.Do(func() { close(c.events) })
}

// Hub manages open streams and broadcasts per organization.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client
	log     *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID][]*client),
		log:     log,
	}
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.orgID] = append(h.clients[c.orgID], c)
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[c.orgID]
	for i, cl := range clients {
		if cl == c {
			h.clients[c.orgID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.clients[c.orgID]) == 0 {
		delete(h.clients, c.orgID)
	}

	c.close()
}

// Publish broadcasts an event to every stream open for the organization.
// Slow clients lose events rather than blocking the publisher.
func (h *Hub) Publish(orgID uuid.UUID, event Event) {
	h.mu.RLock()
	clients := h.clients[orgID]
	h.mu.RUnlock()

	for _, c := range clients {
		if c.convID != uuid.Nil && c.convID != event.ConversationID {
			continue
		}
		select {
		case c.events <- event:
		default:
			h.log.Warn("sse buffer full, event dropped", "org_id", orgID.String())
		}
	}
}

// Handler returns the gin handler that holds a stream open. When the route
// carries a conversationId parameter the stream is scoped to that thread.
func (h *Hub) Handler(getOrgID func(*gin.Context) (uuid.UUID, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := getOrgID(c)
		if !ok {
			return
		}

		var convID uuid.UUID
		if raw := c.Param("conversationId"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				httpkit.Error(c, http.StatusBadRequest, "invalid conversation ID", nil)
				return
			}
			convID = parsed
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			orgID:  orgID,
			convID: convID,
			events: make(chan Event, 32),
		}
		h.addClient(cl)
		defer h.removeClient(cl)

		c.SSEvent("connected", gin.H{"orgId": orgID})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close shuts every stream down.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for _, c := range clients {
			c.close()
		}
	}
	h.clients = make(map[uuid.UUID][]*client)
}
