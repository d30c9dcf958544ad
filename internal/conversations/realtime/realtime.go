// Package realtime fans conversation stream events out across API replicas
// through Redis pub/sub. Each replica publishes events raised by its own
// requests and forwards everything it receives to its local SSE hub.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"recruitflow_backend/internal/conversations/ports"
	"recruitflow_backend/internal/conversations/sse"
	"recruitflow_backend/platform/config"
	"recruitflow_backend/platform/logger"
)

const eventsChannel = "conversations.events"

// Envelope is the wire form of one fanned-out event.
type Envelope struct {
	OrganizationID uuid.UUID `json:"organizationId"`
	Event          sse.Event `json:"event"`
}

// Broker bridges the local SSE hub and Redis. A nil broker degrades to
// single-replica operation: callers fall back to publishing straight into
// the hub.
type Broker struct {
	rdb *redis.Client
	hub *sse.Hub
	log *logger.Logger
}

// NewBroker connects to Redis, or returns nil when Redis is not configured.
func NewBroker(cfg config.RedisConfig, hub *sse.Hub, log *logger.Logger) (*Broker, error) {
	if cfg.GetRedisURL() == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() && opt.TLSConfig != nil {
		opt.TLSConfig.InsecureSkipVerify = true
	}

	return &Broker{
		rdb: redis.NewClient(opt),
		hub: hub,
		log: log,
	}, nil
}

// PublishEvent sends the event to every replica, including this one. The
// local hub is fed by the subscription loop, not directly, so single and
// multi replica deployments behave the same.
func (b *Broker) PublishEvent(ctx context.Context, orgID uuid.UUID, event sse.Event) error {
	if b == nil {
		return nil
	}

	payload, err := json.Marshal(Envelope{OrganizationID: orgID, Event: event})
	if err != nil {
		return fmt.Errorf("marshal realtime envelope: %w", err)
	}

	if err := b.rdb.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish realtime event: %w", err)
	}
	return nil
}

// Run subscribes to the events channel and forwards into the local hub until
// the context is canceled.
func (b *Broker) Run(ctx context.Context) error {
	if b == nil {
		return nil
	}

	sub := b.rdb.Subscribe(ctx, eventsChannel)
	defer func() {
		_ = sub.Close()
	}()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Warn("malformed realtime envelope dropped", "error", err.Error())
				continue
			}
			b.hub.Publish(env.OrganizationID, env.Event)
		}
	}
}

// Close releases the Redis connection.
func (b *Broker) Close() error {
	if b == nil {
		return nil
	}
	return b.rdb.Close()
}

// Compile-time check that Broker implements the module's publisher port.
var _ ports.EventPublisher = (*Broker)(nil)
