// The worker consumes background tasks: deferred provider status callbacks
// that arrived before their messages were logged.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	convdomain "recruitflow_backend/internal/conversations/domain"
	"recruitflow_backend/internal/conversations/gateway"
	convrepo "recruitflow_backend/internal/conversations/repository"
	convservice "recruitflow_backend/internal/conversations/service"
	"recruitflow_backend/internal/events"
	"recruitflow_backend/internal/scheduler"
	"recruitflow_backend/platform/config"
	"recruitflow_backend/platform/db"
	"recruitflow_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.GetTaskQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	// The worker applies statuses only; it never sends, so no gateways and
	// no retry scheduler.
	eventBus := events.NewInMemoryBus(log)
	repo := convrepo.New(pool)
	svc := convservice.New(repo, map[convdomain.Channel]gateway.Gateway{}, noRetry{}, eventBus, log)

	worker, err := scheduler.NewWorker(cfg, svc, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received, draining tasks")
		worker.Shutdown()
	}()

	if err := worker.Run(); err != nil {
		log.Error("worker error", "error", err)
		panic("worker error: " + err.Error())
	}

	log.Info("worker stopped")
}

// noRetry is the worker's retry scheduler: a retry that misses again is
// dropped, never re-enqueued.
type noRetry struct{}

func (noRetry) EnqueueStatusRetry(context.Context, string, string) error { return nil }
