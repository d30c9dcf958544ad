package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"recruitflow_backend/internal/conversations/domain"
	"recruitflow_backend/platform/config"
	"recruitflow_backend/platform/logger"
)

// EmailClient sends conversation messages over SMTP. SMTP has no delivery
// callbacks, so accepted sends are logged as sent and stay there; the
// provider message ID is generated locally to keep the log addressable.
type EmailClient struct {
	client      *mail.Client
	fromName    string
	fromAddress string
	log         *logger.Logger
}

// NewEmailClient creates the email gateway, or nil when SMTP is not
// configured.
func NewEmailClient(cfg config.SMTPConfig, log *logger.Logger) (*EmailClient, error) {
	if !cfg.IsEmailEnabled() {
		return nil, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.GetSMTPPort()),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.GetSMTPUsername() != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.GetSMTPUsername()),
			mail.WithPassword(cfg.GetSMTPPassword()),
		)
	}

	client, err := mail.NewClient(cfg.GetSMTPHost(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &EmailClient{
		client:      client,
		fromName:    cfg.GetEmailFromName(),
		fromAddress: cfg.GetEmailFromAddress(),
		log:         log,
	}, nil
}

// Channel returns the channel this gateway serves.
func (c *EmailClient) Channel() domain.Channel {
	return domain.ChannelEmail
}

// Send delivers the message over SMTP.
func (c *EmailClient) Send(ctx context.Context, msg Message) (SendResult, error) {
	if c == nil {
		return Rejected("email channel is not configured"), nil
	}

	m := mail.NewMsg()
	if err := m.FromFormat(c.fromName, c.fromAddress); err != nil {
		return Rejected(fmt.Sprintf("invalid sender address: %v", err)), nil
	}
	if err := m.To(msg.To); err != nil {
		return Rejected(fmt.Sprintf("invalid recipient address: %v", err)), nil
	}

	subject := msg.Subject
	if subject == "" {
		subject = "New message"
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	if err := c.client.DialAndSendWithContext(ctx, m); err != nil {
		return SendResult{}, fmt.Errorf("send email: %w", err)
	}

	providerMessageID := "smtp-" + uuid.NewString()
	c.log.Info("email sent", "provider_message_id", providerMessageID)

	return Accepted(providerMessageID, domain.StatusSent), nil
}

// Compile-time check that EmailClient implements Gateway.
var _ Gateway = (*EmailClient)(nil)
