package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"recruitflow_backend/internal/adapters"
	"recruitflow_backend/internal/adapters/storage"
	"recruitflow_backend/internal/applicants"
	"recruitflow_backend/internal/conversations"
	convdomain "recruitflow_backend/internal/conversations/domain"
	"recruitflow_backend/internal/conversations/gateway"
	"recruitflow_backend/internal/events"
	apphttp "recruitflow_backend/internal/http"
	"recruitflow_backend/internal/http/router"
	"recruitflow_backend/internal/jobs"
	"recruitflow_backend/internal/scheduler"
	"recruitflow_backend/platform/config"
	"recruitflow_backend/platform/db"
	"recruitflow_backend/platform/logger"
	"recruitflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Resume storage (MinIO). Nil when not configured; resume endpoints
	// return errors instead of blocking startup.
	resumeStore, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize resume storage", "error", err)
		panic("failed to initialize resume storage: " + err.Error())
	}
	if resumeStore != nil {
		log.Info("resume storage initialized", "bucket", cfg.GetResumeBucket())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; resume uploads disabled")
	}

	// Task queue client for deferred status callbacks. Nil without Redis.
	taskClient, err := scheduler.NewClient(cfg, log)
	if err != nil {
		log.Error("failed to initialize task queue client", "error", err)
		panic("failed to initialize task queue client: " + err.Error())
	}
	if taskClient == nil {
		log.Warn("REDIS_URL not configured; status callback retries disabled")
	}
	defer func() {
		_ = taskClient.Close()
	}()

	// Messaging gateways, one per channel. Unconfigured channels stay nil
	// and reject sends cleanly.
	emailGateway, err := gateway.NewEmailClient(cfg, log)
	if err != nil {
		log.Error("failed to initialize email gateway", "error", err)
		panic("failed to initialize email gateway: " + err.Error())
	}
	gateways := map[convdomain.Channel]gateway.Gateway{
		convdomain.ChannelSMS:   gateway.NewSMSClient(cfg, log),
		convdomain.ChannelEmail: emailGateway,
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	jobsModule := jobs.NewModule(pool, val, log)

	bucketReader := adapters.NewJobsBucketReader(jobsModule.Repository())
	applicantsModule := applicants.NewModule(pool, bucketReader, resumeStore, eventBus, val, log)

	conversationsModule, err := conversations.NewModule(conversations.Deps{
		Pool:      pool,
		Gateways:  gateways,
		Retry:     taskClient,
		Bus:       eventBus,
		Validator: val,
		Logger:    log,
		Config:    cfg,
	})
	if err != nil {
		log.Error("failed to initialize conversations module", "error", err)
		panic("failed to initialize conversations module: " + err.Error())
	}
	defer func() {
		_ = conversationsModule.Close()
	}()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			jobsModule,
			applicantsModule,
			conversationsModule,
		},
	}

	engine := router.New(app)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		return engine.Run(cfg.HTTPAddr)
	})
	group.Go(func() error {
		// Realtime fan-out loop; returns when the context ends.
		if err := conversationsModule.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("shutdown complete")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
