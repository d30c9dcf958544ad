// Package conversations provides the messaging bounded context: outbound
// sends, webhook reconciliation, delivery tracking, and live streaming.
package conversations

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"recruitflow_backend/internal/conversations/domain"
	"recruitflow_backend/internal/conversations/gateway"
	"recruitflow_backend/internal/conversations/handler"
	"recruitflow_backend/internal/conversations/ports"
	"recruitflow_backend/internal/conversations/realtime"
	"recruitflow_backend/internal/conversations/repository"
	"recruitflow_backend/internal/conversations/service"
	"recruitflow_backend/internal/conversations/sse"
	"recruitflow_backend/internal/events"
	apphttp "recruitflow_backend/internal/http"
	"recruitflow_backend/platform/config"
	"recruitflow_backend/platform/httpkit"
	"recruitflow_backend/platform/logger"
	"recruitflow_backend/platform/validator"
)

// Module is the conversations bounded context module implementing
// http.Module.
type Module struct {
	handler *handler.Handler
	webhook *handler.WebhookHandler
	service *service.Service
	hub     *sse.Hub
	broker  *realtime.Broker
	// publisher is the broker behind its port, set only when Redis is
	// configured. Nil means single replica: publish straight into the hub.
	publisher ports.EventPublisher
	log       *logger.Logger
}

// Deps are the module's external dependencies, assembled in the composition
// root.
type Deps struct {
	Pool      *pgxpool.Pool
	Gateways  map[domain.Channel]gateway.Gateway
	Retry     ports.StatusRetryScheduler
	Bus       events.Bus
	Validator *validator.Validator
	Logger    *logger.Logger
	Config    *config.Config
}

// NewModule creates and initializes the conversations module.
func NewModule(deps Deps) (*Module, error) {
	repo := repository.New(deps.Pool)
	svc := service.New(repo, deps.Gateways, deps.Retry, deps.Bus, deps.Logger)
	hub := sse.NewHub(deps.Logger)

	broker, err := realtime.NewBroker(deps.Config, hub, deps.Logger)
	if err != nil {
		return nil, err
	}

	m := &Module{
		handler: handler.New(svc, deps.Validator, deps.Config.GetSMSFromNumber(), deps.Config.GetEmailFromAddress()),
		webhook: handler.NewWebhook(svc, deps.Logger),
		service: svc,
		hub:     hub,
		broker:  broker,
		log:     deps.Logger,
	}
	if broker != nil {
		m.publisher = broker
	}

	m.subscribe(deps.Bus)
	return m, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "conversations"
}

// Service returns the service layer for external use. The task worker uses
// it to apply deferred status callbacks.
func (m *Module) Service() *service.Service {
	return m.service
}

// Run starts the realtime fan-out loop and blocks until the context is
// canceled. No-op without Redis.
func (m *Module) Run(ctx context.Context) error {
	return m.broker.Run(ctx)
}

// Close shuts down streaming.
func (m *Module) Close() error {
	m.hub.Close()
	return m.broker.Close()
}

// subscribe wires conversation events into the live stream. With Redis the
// event takes the long way around so every replica's clients see it; without
// Redis it goes straight to the local hub.
func (m *Module) subscribe(bus events.Bus) {
	bus.Subscribe(events.ConversationMessageAdded{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		added, ok := e.(events.ConversationMessageAdded)
		if !ok {
			return nil
		}
		return m.fanOut(ctx, added.OrganizationID, sse.Event{
			Type:           sse.EventMessageAdded,
			ConversationID: added.ConversationID,
			MessageID:      added.MessageID,
			Channel:        added.Channel,
			Direction:      added.Direction,
		})
	}))

	bus.Subscribe(events.MessageStatusChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		changed, ok := e.(events.MessageStatusChanged)
		if !ok {
			return nil
		}
		return m.fanOut(ctx, changed.OrganizationID, sse.Event{
			Type:           sse.EventStatusChanged,
			ConversationID: changed.ConversationID,
			MessageID:      changed.MessageID,
			Status:         changed.Status,
		})
	}))
}

func (m *Module) fanOut(ctx context.Context, orgID uuid.UUID, event sse.Event) error {
	if m.publisher == nil {
		m.hub.Publish(orgID, event)
		return nil
	}
	return m.publisher.PublishEvent(ctx, orgID, event)
}

// RegisterRoutes mounts conversation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	stream := m.hub.Handler(func(c *gin.Context) (uuid.UUID, bool) {
		identity := httpkit.MustGetIdentity(c)
		if identity == nil {
			return uuid.UUID{}, false
		}
		orgID := identity.OrgID()
		if orgID == nil {
			return uuid.UUID{}, false
		}
		return *orgID, true
	})

	group := ctx.Protected.Group("/conversations")
	group.GET("", m.handler.List)
	group.POST("/messages", m.handler.SendMessage)
	group.GET("/:conversationId/messages", m.handler.ListMessages)
	group.GET("/:conversationId/stream", stream)
	group.GET("/stream", stream)

	webhooks := ctx.Webhook.Group("/sms")
	webhooks.POST("/inbound", m.webhook.InboundSMS)
	webhooks.POST("/status", m.webhook.SMSStatus)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
