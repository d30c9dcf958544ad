// Package service implements conversation synchronization: outbound sends,
// inbound webhook reconciliation, and delivery status tracking.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"recruitflow_backend/internal/conversations/domain"
	"recruitflow_backend/internal/conversations/gateway"
	"recruitflow_backend/internal/conversations/ports"
	"recruitflow_backend/internal/conversations/repository"
	"recruitflow_backend/internal/events"
	"recruitflow_backend/platform/apperr"
	"recruitflow_backend/platform/logger"
	"recruitflow_backend/platform/phone"
)

// Service owns the conversation log. All writes to it flow through here so
// every append and status change raises the matching event exactly once.
type Service struct {
	repo     repository.Repository
	gateways map[domain.Channel]gateway.Gateway
	retry    ports.StatusRetryScheduler
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new conversations service. Gateways may be nil-valued for
// channels that are not configured; sends on those channels fail cleanly.
func New(repo repository.Repository, gateways map[domain.Channel]gateway.Gateway, retry ports.StatusRetryScheduler, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		gateways: gateways,
		retry:    retry,
		bus:      bus,
		log:      log,
	}
}

// SendParams describe one outbound message.
type SendParams struct {
	OrganizationID uuid.UUID
	ApplicantID    *uuid.UUID
	Channel        domain.Channel
	Origin         string
	Recipient      string
	Sender         string
	Subject        string
	Body           string
}

// Send delivers a message and logs it on the thread for (channel, origin,
// recipient), creating the thread on first contact. The message is logged
// whether the provider accepted it or not; a rejected send is logged as
// failed with the provider's detail and surfaced as an error.
func (s *Service) Send(ctx context.Context, params SendParams) (repository.Message, error) {
	if !domain.IsKnownChannel(string(params.Channel)) {
		return repository.Message{}, apperr.Validation(fmt.Sprintf("unsupported channel %q", params.Channel))
	}
	if params.Body == "" {
		return repository.Message{}, apperr.Validation("message body is required")
	}

	gw, ok := s.gateways[params.Channel]
	if !ok || gw == nil {
		return repository.Message{}, apperr.Unavailable(fmt.Sprintf("channel %q is not configured", params.Channel))
	}

	recipient := params.Recipient
	if params.Channel == domain.ChannelSMS {
		recipient = phone.FormatOutbound(params.Recipient)
	}

	conv, err := s.repo.GetOrCreate(ctx, repository.GetOrCreateParams{
		OrganizationID:   params.OrganizationID,
		ApplicantID:      params.ApplicantID,
		Channel:          params.Channel,
		OriginAddress:    params.Origin,
		RecipientAddress: recipient,
	})
	if err != nil {
		return repository.Message{}, err
	}

	result, err := gw.Send(ctx, gateway.Message{
		To:      recipient,
		From:    params.Origin,
		Subject: params.Subject,
		Body:    params.Body,
	})
	if err != nil {
		return repository.Message{}, fmt.Errorf("send via %s: %w", params.Channel, err)
	}

	msg, appendErr := s.repo.AppendMessage(ctx, repository.AppendMessageParams{
		ConversationID:    conv.ID,
		Direction:         domain.DirectionOutbound,
		Sender:            params.Sender,
		Body:              params.Body,
		Status:            result.Status,
		ProviderMessageID: result.ProviderMessageID,
	})
	if appendErr != nil {
		return repository.Message{}, appendErr
	}
	msg.OrganizationID = params.OrganizationID

	s.bus.Publish(ctx, events.ConversationMessageAdded{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: params.OrganizationID,
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		Channel:        string(params.Channel),
		Direction:      string(domain.DirectionOutbound),
	})

	if !result.Ok {
		return msg, apperr.Unavailable(fmt.Sprintf("provider rejected message: %s", result.Detail))
	}

	return msg, nil
}

// ListConversations retrieves the organization's threads.
func (s *Service) ListConversations(ctx context.Context, organizationID uuid.UUID) ([]repository.Conversation, error) {
	return s.repo.ListByOrganization(ctx, organizationID)
}

// ListMessages retrieves a thread's log oldest first, so clients render it
// top to bottom without re-sorting.
func (s *Service) ListMessages(ctx context.Context, organizationID, conversationID uuid.UUID) ([]repository.Message, error) {
	return s.repo.ListMessages(ctx, organizationID, conversationID)
}

// InboundSMSParams carry the provider's webhook fields for a received SMS.
type InboundSMSParams struct {
	From              string
	To                string
	Body              string
	ProviderMessageID string
}

// HandleInboundSMS reconciles a received SMS into a conversation. The sender
// number is matched against conversation recipients by significant digits,
// since provider formatting rarely matches what was stored on send. An event
// that matches no conversation is logged and dropped; the caller acknowledges
// the provider either way.
func (s *Service) HandleInboundSMS(ctx context.Context, params InboundSMSParams) error {
	matchKey := phone.MatchKey(params.From)
	if matchKey == "" {
		s.log.WebhookDropped("sms", params.From, params.To, params.ProviderMessageID, "sender has no digits")
		return nil
	}

	conv, err := s.repo.FindByRecipientMatchKey(ctx, matchKey, phone.MatchKey(params.To))
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			s.log.WebhookDropped("sms", params.From, params.To, params.ProviderMessageID, "no conversation matches sender")
			return nil
		}
		return fmt.Errorf("reconcile inbound sms: %w", err)
	}

	msg, err := s.repo.AppendMessage(ctx, repository.AppendMessageParams{
		ConversationID:    conv.ID,
		Direction:         domain.DirectionInbound,
		Sender:            domain.ExternalSender,
		Body:              params.Body,
		Status:            domain.StatusReceived,
		ProviderMessageID: params.ProviderMessageID,
	})
	if err != nil {
		return fmt.Errorf("log inbound sms: %w", err)
	}

	s.bus.Publish(ctx, events.ConversationMessageAdded{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: conv.OrganizationID,
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		Channel:        string(domain.ChannelSMS),
		Direction:      string(domain.DirectionInbound),
	})

	return nil
}

// HandleStatusCallback applies a provider delivery status to the logged
// message carrying that provider ID. A callback for a message not yet logged
// is deferred once through the task queue; callbacks with a status outside
// our vocabulary are dropped.
func (s *Service) HandleStatusCallback(ctx context.Context, providerMessageID, providerStatus string) error {
	status := domain.NormalizeProviderStatus(providerStatus)
	if status == "" {
		s.log.Warn("unknown provider status dropped",
			"provider_message_id", providerMessageID,
			"provider_status", providerStatus,
		)
		return nil
	}

	msg, err := s.repo.UpdateStatusByProviderID(ctx, providerMessageID, status)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			if retryErr := s.retry.EnqueueStatusRetry(ctx, providerMessageID, string(status)); retryErr != nil {
				return fmt.Errorf("defer status callback: %w", retryErr)
			}
			return nil
		}
		return fmt.Errorf("apply status callback: %w", err)
	}

	s.publishStatusChanged(ctx, msg)
	return nil
}

// ApplyStatusRetry is the deferred half of HandleStatusCallback, run by the
// task worker. A miss here is final; the returned error is logged by the
// worker and the status is dropped.
func (s *Service) ApplyStatusRetry(ctx context.Context, providerMessageID, status string) error {
	msg, err := s.repo.UpdateStatusByProviderID(ctx, providerMessageID, domain.Status(status))
	if err != nil {
		return err
	}

	s.publishStatusChanged(ctx, msg)
	return nil
}

func (s *Service) publishStatusChanged(ctx context.Context, msg repository.Message) {
	s.bus.Publish(ctx, events.MessageStatusChanged{
		BaseEvent:         events.NewBaseEvent(),
		OrganizationID:    msg.OrganizationID,
		ConversationID:    msg.ConversationID,
		MessageID:         msg.ID,
		ProviderMessageID: msg.ProviderMessageID,
		Status:            string(msg.Status),
	})
}
