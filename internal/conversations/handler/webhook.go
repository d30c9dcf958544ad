package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recruitflow_backend/internal/conversations/service"
	"recruitflow_backend/internal/conversations/transport"
	"recruitflow_backend/platform/logger"
)

// emptyTwiML tells the provider we handled the event and have no reply to
// send back.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// WebhookHandler receives provider callbacks. Every handler acknowledges with
// 200 no matter what happened internally; a non-2xx response would make the
// provider retry and disable the webhook after repeated failures.
type WebhookHandler struct {
	svc *service.Service
	log *logger.Logger
}

// NewWebhook creates the webhook handler.
func NewWebhook(svc *service.Service, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, log: log}
}

// InboundSMS receives a provider callback for a received SMS.
// POST /api/v1/webhook/sms/inbound
func (h *WebhookHandler) InboundSMS(c *gin.Context) {
	var payload transport.InboundSMSWebhook
	if err := c.ShouldBind(&payload); err != nil {
		h.log.Warn("malformed inbound sms webhook", "error", err.Error())
		h.ack(c)
		return
	}

	err := h.svc.HandleInboundSMS(c.Request.Context(), service.InboundSMSParams{
		From:              payload.From,
		To:                payload.To,
		Body:              payload.Body,
		ProviderMessageID: payload.MessageSid,
	})
	if err != nil {
		h.log.Error("inbound sms processing failed",
			"provider_message_id", payload.MessageSid,
			"error", err.Error(),
		)
	}

	h.ack(c)
}

// SMSStatus receives a provider delivery-status callback.
// POST /api/v1/webhook/sms/status
func (h *WebhookHandler) SMSStatus(c *gin.Context) {
	var payload transport.StatusCallbackWebhook
	if err := c.ShouldBind(&payload); err != nil {
		h.log.Warn("malformed status webhook", "error", err.Error())
		h.ack(c)
		return
	}

	err := h.svc.HandleStatusCallback(c.Request.Context(), payload.MessageSid, payload.Status())
	if err != nil {
		h.log.Error("status callback processing failed",
			"provider_message_id", payload.MessageSid,
			"error", err.Error(),
		)
	}

	h.ack(c)
}

func (h *WebhookHandler) ack(c *gin.Context) {
	c.Data(http.StatusOK, "text/xml", []byte(emptyTwiML))
}
