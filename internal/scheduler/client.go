package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"recruitflow_backend/platform/config"
	"recruitflow_backend/platform/logger"
)

// Client enqueues background tasks. A nil client is a disabled queue; enqueue
// calls on it are no-ops so the API can run without Redis in development.
type Client struct {
	client *asynq.Client
	cfg    config.RedisConfig
	log    *logger.Logger
}

// NewClient creates the task queue client, or nil when Redis is not
// configured.
func NewClient(cfg config.RedisConfig, log *logger.Logger) (*Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, nil
	}

	opt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return &Client{
		client: asynq.NewClient(opt),
		cfg:    cfg,
		log:    log,
	}, nil
}

// EnqueueStatusRetry schedules a single replay of an early status callback
// after the configured delay. The task is not retried beyond that one run;
// a status that still matches nothing is dropped for good.
func (c *Client) EnqueueStatusRetry(ctx context.Context, providerMessageID, status string) error {
	if c == nil {
		return nil
	}

	task, err := NewStatusRetryTask(providerMessageID, status)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.cfg.GetTaskQueueName()),
		asynq.ProcessIn(c.cfg.GetStatusRetryDelay()),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return fmt.Errorf("enqueue status retry: %w", err)
	}

	c.log.Info("status retry scheduled",
		"task_id", info.ID,
		"provider_message_id", providerMessageID,
		"status", status,
	)
	return nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
