package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"

	"recruitflow_backend/internal/conversations/domain"
	"recruitflow_backend/internal/conversations/gateway"
	"recruitflow_backend/internal/conversations/repository"
	"recruitflow_backend/internal/events"
	"recruitflow_backend/platform/apperr"
	"recruitflow_backend/platform/logger"
	"recruitflow_backend/platform/phone"
)

type threadKey struct {
	org       uuid.UUID
	channel   domain.Channel
	origin    string
	recipient string
}

type fakeRepo struct {
	mu            sync.Mutex
	conversations map[threadKey]repository.Conversation
	messages      []repository.Message
	seq           int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{conversations: make(map[threadKey]repository.Conversation)}
}

func (f *fakeRepo) GetOrCreate(_ context.Context, params repository.GetOrCreateParams) (repository.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := threadKey{params.OrganizationID, params.Channel, params.OriginAddress, params.RecipientAddress}
	if conv, ok := f.conversations[key]; ok {
		return conv, nil
	}
	conv := repository.Conversation{
		ID:               uuid.New(),
		OrganizationID:   params.OrganizationID,
		ApplicantID:      params.ApplicantID,
		Channel:          params.Channel,
		OriginAddress:    params.OriginAddress,
		RecipientAddress: params.RecipientAddress,
	}
	f.conversations[key] = conv
	return conv, nil
}

func (f *fakeRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (repository.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conv := range f.conversations {
		if conv.ID == id && conv.OrganizationID == orgID {
			return conv, nil
		}
	}
	return repository.Conversation{}, apperr.NotFound("conversation not found")
}

func (f *fakeRepo) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]repository.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Conversation
	for _, conv := range f.conversations {
		if conv.OrganizationID == orgID {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (f *fakeRepo) AppendMessage(_ context.Context, params repository.AppendMessageParams) (repository.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	msg := repository.Message{
		ID:                uuid.New(),
		ConversationID:    params.ConversationID,
		Direction:         params.Direction,
		Sender:            params.Sender,
		Body:              params.Body,
		Status:            params.Status,
		ProviderMessageID: params.ProviderMessageID,
		// sortable stand-in for a timestamp
		CreatedAt: string(rune('a' + f.seq)),
	}
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeRepo) UpdateStatusByProviderID(_ context.Context, providerMessageID string, status domain.Status) (repository.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, msg := range f.messages {
		if msg.ProviderMessageID == providerMessageID && providerMessageID != "" {
			f.messages[i].Status = status
			return f.messages[i], nil
		}
	}
	return repository.Message{}, apperr.NotFound("no message logged for provider message id")
}

func (f *fakeRepo) ListMessages(_ context.Context, _, conversationID uuid.UUID) ([]repository.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Message
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (f *fakeRepo) FindByRecipientMatchKey(_ context.Context, matchKey, originKey string) (repository.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conv := range f.conversations {
		if conv.Channel != domain.ChannelSMS || phone.MatchKey(conv.RecipientAddress) != matchKey {
			continue
		}
		if originKey != "" && phone.MatchKey(conv.OriginAddress) != originKey {
			continue
		}
		return conv, nil
	}
	return repository.Conversation{}, apperr.NotFound("no conversation matches sender")
}

type fakeGateway struct {
	channel domain.Channel
	result  gateway.SendResult
	err     error
	sent    []gateway.Message
}

func (f *fakeGateway) Channel() domain.Channel { return f.channel }

func (f *fakeGateway) Send(_ context.Context, msg gateway.Message) (gateway.SendResult, error) {
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return gateway.SendResult{}, f.err
	}
	return f.result, nil
}

type fakeRetry struct {
	enqueued []string
	err      error
}

func (f *fakeRetry) EnqueueStatusRetry(_ context.Context, providerMessageID, status string) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, providerMessageID+":"+status)
	return nil
}

type capturedBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *capturedBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *capturedBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *capturedBus) Subscribe(string, events.Handler) {}

func (b *capturedBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.published))
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

func newTestService(repo *fakeRepo, sms *fakeGateway, retry *fakeRetry) (*Service, *capturedBus) {
	bus := &capturedBus{}
	gateways := map[domain.Channel]gateway.Gateway{}
	if sms != nil {
		gateways[domain.ChannelSMS] = sms
	}
	svc := New(repo, gateways, retry, bus, logger.New("development"))
	return svc, bus
}

func acceptedSMS() *fakeGateway {
	return &fakeGateway{
		channel: domain.ChannelSMS,
		result:  gateway.Accepted("SM100", domain.StatusSent),
	}
}

func TestSendReusesThreadForSameRecipient(t *testing.T) {
	orgID := uuid.New()
	repo := newFakeRepo()
	svc, _ := newTestService(repo, acceptedSMS(), &fakeRetry{})

	params := SendParams{
		OrganizationID: orgID,
		Channel:        domain.ChannelSMS,
		Origin:         "+15550001111",
		Recipient:      "+1 (555) 555-1234",
		Sender:         "recruiter@acme",
		Body:           "hello",
	}
	first, err := svc.Send(context.Background(), params)
	if err != nil {
		t.Fatalf("first Send() error = %v", err)
	}
	// Different formatting, same number.
	params.Recipient = "555-555-1234"
	second, err := svc.Send(context.Background(), params)
	if err != nil {
		t.Fatalf("second Send() error = %v", err)
	}

	if first.ConversationID != second.ConversationID {
		t.Errorf("sends created two threads: %s vs %s", first.ConversationID, second.ConversationID)
	}
	if len(repo.conversations) != 1 {
		t.Errorf("conversation count = %d, want 1", len(repo.conversations))
	}
}

func TestSendLogsRejectedMessageAsFailed(t *testing.T) {
	orgID := uuid.New()
	repo := newFakeRepo()
	sms := &fakeGateway{
		channel: domain.ChannelSMS,
		result:  gateway.Rejected("invalid destination"),
	}
	svc, _ := newTestService(repo, sms, &fakeRetry{})

	msg, err := svc.Send(context.Background(), SendParams{
		OrganizationID: orgID,
		Channel:        domain.ChannelSMS,
		Origin:         "+15550001111",
		Recipient:      "+15555551234",
		Sender:         "recruiter@acme",
		Body:           "hello",
	})
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("error kind = %v, want unavailable", apperr.GetKind(err))
	}
	if msg.Status != domain.StatusFailed {
		t.Errorf("message status = %q, want failed", msg.Status)
	}
	if len(repo.messages) != 1 {
		t.Errorf("rejected send logged %d messages, want 1", len(repo.messages))
	}
}

func TestSendRejectsUnknownChannel(t *testing.T) {
	svc, _ := newTestService(newFakeRepo(), acceptedSMS(), &fakeRetry{})

	_, err := svc.Send(context.Background(), SendParams{
		OrganizationID: uuid.New(),
		Channel:        "fax",
		Recipient:      "+15555551234",
		Body:           "hello",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("error kind = %v, want validation", apperr.GetKind(err))
	}
}

func TestSendFailsWhenChannelNotConfigured(t *testing.T) {
	svc, _ := newTestService(newFakeRepo(), nil, &fakeRetry{})

	_, err := svc.Send(context.Background(), SendParams{
		OrganizationID: uuid.New(),
		Channel:        domain.ChannelSMS,
		Recipient:      "+15555551234",
		Body:           "hello",
	})
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Errorf("error kind = %v, want unavailable", apperr.GetKind(err))
	}
}

func TestInboundSMSMatchesDespiteFormatting(t *testing.T) {
	orgID := uuid.New()
	repo := newFakeRepo()
	svc, bus := newTestService(repo, acceptedSMS(), &fakeRetry{})

	sent, err := svc.Send(context.Background(), SendParams{
		OrganizationID: orgID,
		Channel:        domain.ChannelSMS,
		Origin:         "+15550001111",
		Recipient:      "(555) 555-1234",
		Sender:         "recruiter@acme",
		Body:           "are you available Monday?",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	err = svc.HandleInboundSMS(context.Background(), InboundSMSParams{
		From:              "+15555551234",
		To:                "+15550001111",
		Body:              "yes, works for me",
		ProviderMessageID: "SM200",
	})
	if err != nil {
		t.Fatalf("HandleInboundSMS() error = %v", err)
	}

	msgs, err := svc.ListMessages(context.Background(), orgID, sent.ConversationID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2", len(msgs))
	}
	reply := msgs[1]
	if reply.Direction != domain.DirectionInbound {
		t.Errorf("reply direction = %q, want inbound", reply.Direction)
	}
	if reply.Sender != domain.ExternalSender {
		t.Errorf("reply sender = %q, want %q", reply.Sender, domain.ExternalSender)
	}
	if reply.Status != domain.StatusReceived {
		t.Errorf("reply status = %q, want received", reply.Status)
	}

	names := bus.names()
	if len(names) != 2 {
		t.Errorf("published events = %v, want two message_added", names)
	}
}

func TestInboundSMSWithNoMatchIsDropped(t *testing.T) {
	repo := newFakeRepo()
	svc, bus := newTestService(repo, acceptedSMS(), &fakeRetry{})

	err := svc.HandleInboundSMS(context.Background(), InboundSMSParams{
		From:              "+19998887777",
		To:                "+15550001111",
		Body:              "wrong number",
		ProviderMessageID: "SM300",
	})
	if err != nil {
		t.Fatalf("HandleInboundSMS() error = %v, want nil for dropped event", err)
	}
	if len(repo.messages) != 0 {
		t.Errorf("dropped event logged %d messages", len(repo.messages))
	}
	if len(bus.names()) != 0 {
		t.Errorf("dropped event published %v", bus.names())
	}
}

func TestStatusCallbackIsIdempotent(t *testing.T) {
	orgID := uuid.New()
	repo := newFakeRepo()
	svc, _ := newTestService(repo, acceptedSMS(), &fakeRetry{})

	sent, err := svc.Send(context.Background(), SendParams{
		OrganizationID: orgID,
		Channel:        domain.ChannelSMS,
		Origin:         "+15550001111",
		Recipient:      "+15555551234",
		Sender:         "recruiter@acme",
		Body:           "hello",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	for range 3 {
		if err := svc.HandleStatusCallback(context.Background(), "SM100", "delivered"); err != nil {
			t.Fatalf("HandleStatusCallback() error = %v", err)
		}
	}

	msgs, _ := svc.ListMessages(context.Background(), orgID, sent.ConversationID)
	if len(msgs) != 1 {
		t.Fatalf("message count = %d, want 1", len(msgs))
	}
	if msgs[0].Status != domain.StatusDelivered {
		t.Errorf("status = %q, want delivered", msgs[0].Status)
	}
}

func TestStatusCallbackForUnknownMessageIsDeferred(t *testing.T) {
	retry := &fakeRetry{}
	svc, _ := newTestService(newFakeRepo(), acceptedSMS(), retry)

	if err := svc.HandleStatusCallback(context.Background(), "SM999", "delivered"); err != nil {
		t.Fatalf("HandleStatusCallback() error = %v", err)
	}
	if len(retry.enqueued) != 1 || retry.enqueued[0] != "SM999:delivered" {
		t.Errorf("enqueued = %v, want [SM999:delivered]", retry.enqueued)
	}
}

func TestStatusCallbackDropsUnknownStatus(t *testing.T) {
	retry := &fakeRetry{}
	svc, _ := newTestService(newFakeRepo(), acceptedSMS(), retry)

	if err := svc.HandleStatusCallback(context.Background(), "SM100", "teleported"); err != nil {
		t.Fatalf("HandleStatusCallback() error = %v", err)
	}
	if len(retry.enqueued) != 0 {
		t.Errorf("unknown status was deferred: %v", retry.enqueued)
	}
}

func TestSendDeliverReplyEndToEnd(t *testing.T) {
	orgID := uuid.New()
	repo := newFakeRepo()
	svc, _ := newTestService(repo, acceptedSMS(), &fakeRetry{})

	sent, err := svc.Send(context.Background(), SendParams{
		OrganizationID: orgID,
		Channel:        domain.ChannelSMS,
		Origin:         "+15550001111",
		Recipient:      "+15555551234",
		Sender:         "recruiter@acme",
		Body:           "can you interview Tuesday?",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if err := svc.HandleStatusCallback(context.Background(), "SM100", "delivered"); err != nil {
		t.Fatalf("status callback error = %v", err)
	}
	err = svc.HandleInboundSMS(context.Background(), InboundSMSParams{
		From: "(555) 555-1234",
		To:   "+15550001111",
		Body: "Tuesday works",
	})
	if err != nil {
		t.Fatalf("inbound error = %v", err)
	}

	msgs, err := svc.ListMessages(context.Background(), orgID, sent.ConversationID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2", len(msgs))
	}
	if msgs[0].Direction != domain.DirectionOutbound || msgs[0].Status != domain.StatusDelivered {
		t.Errorf("first message = %q/%q, want outbound/delivered", msgs[0].Direction, msgs[0].Status)
	}
	if msgs[1].Direction != domain.DirectionInbound || msgs[1].Body != "Tuesday works" {
		t.Errorf("second message = %q/%q, want the inbound reply", msgs[1].Direction, msgs[1].Body)
	}
}

func TestApplyStatusRetryMissIsFinal(t *testing.T) {
	svc, bus := newTestService(newFakeRepo(), acceptedSMS(), &fakeRetry{})

	err := svc.ApplyStatusRetry(context.Background(), "SM404", "delivered")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("error kind = %v, want not found", apperr.GetKind(err))
	}
	if len(bus.names()) != 0 {
		t.Errorf("retry miss published %v", bus.names())
	}
}
