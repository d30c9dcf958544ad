// Package domain holds the conversation message vocabulary: channels,
// directions, and delivery statuses.
package domain

// Channel is the transport a conversation runs over.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// IsKnownChannel reports whether the value is a supported channel.
func IsKnownChannel(channel string) bool {
	switch Channel(channel) {
	case ChannelSMS, ChannelEmail:
		return true
	}
	return false
}

// Direction distinguishes messages we sent from messages we received.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// Status is the delivery lifecycle of a logged message. Inbound messages are
// always received; outbound messages start as sent and move to delivered or
// failed.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusReceived  Status = "received"
)

// NormalizeProviderStatus maps a provider's delivery status string to our
// status vocabulary. Providers report several flavors of "accepted but not
// yet delivered" (queued, sending); all of them mean the message left our
// hands, which is sent in our vocabulary. Unknown values map to empty so
// callers can drop the callback instead of recording garbage.
func NormalizeProviderStatus(providerStatus string) Status {
	switch providerStatus {
	case "queued", "accepted", "sending", "sent":
		return StatusSent
	case "delivered", "read":
		return StatusDelivered
	case "failed", "undelivered", "canceled":
		return StatusFailed
	}
	return ""
}

// ExternalSender is the sender label recorded on inbound messages, which by
// definition have no user in our system.
const ExternalSender = "External"
