package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"recruitflow_backend/platform/config"
	"recruitflow_backend/platform/logger"
)

// StatusRetryHandler applies a deferred status callback.
type StatusRetryHandler interface {
	ApplyStatusRetry(ctx context.Context, providerMessageID, status string) error
}

// Worker consumes background tasks from the queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

// NewWorker creates the task worker bound to the configured queue.
func NewWorker(cfg config.RedisConfig, handler StatusRetryHandler, log *logger.Logger) (*Worker, error) {
	if cfg.GetRedisURL() == "" {
		return nil, fmt.Errorf("REDIS_URL is required to run the worker")
	}

	opt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			cfg.GetTaskQueueName(): 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			log.Error("task failed", "type", task.Type(), "error", err.Error())
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeStatusRetry, statusRetryTaskHandler(handler, log))

	return &Worker{server: server, mux: mux, log: log}, nil
}

// Run starts the worker and blocks until shutdown.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func statusRetryTaskHandler(handler StatusRetryHandler, log *logger.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		payload, err := parseStatusRetryPayload(task.Payload())
		if err != nil {
			// Malformed payloads cannot succeed on retry.
			log.Error("invalid status retry payload", "error", err.Error())
			return nil
		}

		if err := handler.ApplyStatusRetry(ctx, payload.ProviderMessageID, payload.Status); err != nil {
			log.Warn("status retry dropped",
				"provider_message_id", payload.ProviderMessageID,
				"status", payload.Status,
				"error", err.Error(),
			)
		}
		return nil
	}
}
