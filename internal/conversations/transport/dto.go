// Package transport defines the request/response shapes for the
// conversations module.
package transport

import "github.com/google/uuid"

// SendMessageRequest sends one outbound message on a thread, creating the
// thread on first contact.
type SendMessageRequest struct {
	Channel     string     `json:"channel" validate:"required,oneof=sms email"`
	Recipient   string     `json:"recipient" validate:"required,max=320"`
	Subject     string     `json:"subject" validate:"max=200"`
	Body        string     `json:"body" validate:"required,max=4000"`
	ApplicantID *uuid.UUID `json:"applicantId"`
}

// InboundSMSWebhook is the form payload of a provider inbound-SMS callback.
type InboundSMSWebhook struct {
	MessageSid string `form:"MessageSid"`
	From       string `form:"From"`
	To         string `form:"To"`
	Body       string `form:"Body"`
}

// StatusCallbackWebhook is the form payload of a provider delivery-status
// callback.
type StatusCallbackWebhook struct {
	MessageSid    string `form:"MessageSid"`
	MessageStatus string `form:"MessageStatus"`
	SmsStatus     string `form:"SmsStatus"`
}

// Status returns whichever status field the provider populated.
func (w StatusCallbackWebhook) Status() string {
	if w.MessageStatus != "" {
		return w.MessageStatus
	}
	return w.SmsStatus
}
