package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"recruitflow_backend/internal/conversations/domain"
	"recruitflow_backend/internal/conversations/service"
	"recruitflow_backend/internal/conversations/transport"
	"recruitflow_backend/platform/httpkit"
	"recruitflow_backend/platform/validator"
)

// Handler handles HTTP requests for conversations.
type Handler struct {
	svc       *service.Service
	val       *validator.Validator
	smsOrigin string
	emailFrom string
}

const (
	msgInvalidRequest        = "invalid request"
	msgValidationFailed      = "validation failed"
	msgInvalidConversationID = "invalid conversation ID"
)

// New creates a new conversations handler. The origin addresses identify our
// side of each channel's threads.
func New(svc *service.Service, val *validator.Validator, smsOrigin, emailFrom string) *Handler {
	return &Handler{svc: svc, val: val, smsOrigin: smsOrigin, emailFrom: emailFrom}
}

// List retrieves the organization's conversation threads.
// GET /api/v1/conversations
func (h *Handler) List(c *gin.Context) {
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListConversations(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListMessages retrieves a thread's log, oldest first.
// GET /api/v1/conversations/:conversationId/messages
func (h *Handler) ListMessages(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("conversationId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidConversationID, nil)
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListMessages(c.Request.Context(), orgID, conversationID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SendMessage sends an outbound message.
// POST /api/v1/conversations/messages
func (h *Handler) SendMessage(c *gin.Context) {
	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	sender := identity.UserID().String()

	channel := domain.Channel(req.Channel)
	origin := h.smsOrigin
	if channel == domain.ChannelEmail {
		origin = h.emailFrom
	}

	result, err := h.svc.Send(c.Request.Context(), service.SendParams{
		OrganizationID: orgID,
		ApplicantID:    req.ApplicantID,
		Channel:        channel,
		Origin:         origin,
		Recipient:      req.Recipient,
		Sender:         sender,
		Subject:        req.Subject,
		Body:           req.Body,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func mustGetOrgID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.UUID{}, false
	}
	orgID := identity.OrgID()
	if orgID == nil {
		httpkit.Error(c, http.StatusForbidden, "no company context", nil)
		return uuid.UUID{}, false
	}
	return *orgID, true
}
