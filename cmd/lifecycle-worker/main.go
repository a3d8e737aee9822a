package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/eventhub/internal/adapters/crdb"
	redisadapter "github.com/robertarktes/eventhub/internal/adapters/redis"
	"github.com/robertarktes/eventhub/internal/app"
	"github.com/robertarktes/eventhub/internal/config"
	"github.com/robertarktes/eventhub/internal/observability"
)

const lockName = "lifecycle-sweep"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg, "eventhub-lifecycle-worker")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()
	observability.InitMetrics()

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	redisCache := redisadapter.NewCache(redisClient)

	notifications := app.NewNotificationService(repo, logger)
	worker := NewLifecycleWorker(app.NewLifecycle(repo, notifications, redisCache, cfg.ReminderWindow, logger), redisCache, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx, cfg.LifecycleInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown lifecycle worker")
}

// LifecycleWorker runs sweeps on a ticker. A Redis lock keeps concurrent
// replicas from sweeping the same window.
type LifecycleWorker struct {
	lifecycle *app.Lifecycle
	locks     *redisadapter.Cache
	owner     string
	logger    observability.Logger
}

func NewLifecycleWorker(lifecycle *app.Lifecycle, locks *redisadapter.Cache, logger observability.Logger) *LifecycleWorker {
	return &LifecycleWorker{lifecycle: lifecycle, locks: locks, owner: uuid.NewString(), logger: logger}
}

func (w *LifecycleWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.sweepWithRetry(ctx, now, interval)
		}
	}
}

func (w *LifecycleWorker) sweepWithRetry(ctx context.Context, now time.Time, interval time.Duration) {
	ok, err := w.locks.AcquireLock(ctx, lockName, w.owner, interval)
	if err != nil {
		w.logger.WithError(err).Error("failed to acquire sweep lock")
		return
	}
	if !ok {
		w.logger.Debug("sweep already running elsewhere")
		return
	}
	defer func() {
		if err := w.locks.ReleaseLock(context.Background(), lockName, w.owner); err != nil {
			w.logger.WithError(err).Warn("failed to release sweep lock")
		}
	}()

	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		res, err := w.lifecycle.Sweep(ctx, now.UTC())
		if err == nil {
			w.logger.WithField("expired", res.Expired).
				WithField("reminded", res.Reminded).
				WithField("failed", res.Failed).
				Info("lifecycle sweep finished")
			return
		}
		w.logger.WithError(err).WithField("attempt", i+1).Warn("lifecycle sweep failed")
		backoff := time.Duration(1<<i) * time.Second
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
	w.logger.Error("lifecycle sweep gave up after retries")
}
