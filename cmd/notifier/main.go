package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/eventhub/internal/adapters/crdb"
	"github.com/robertarktes/eventhub/internal/adapters/rabbit"
	"github.com/robertarktes/eventhub/internal/app"
	"github.com/robertarktes/eventhub/internal/config"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
)

const queueName = "eventhub.notifications"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg, "eventhub-notifier")
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

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	consumer, err := rabbit.NewConsumer(conn, queueName, "ticket.*", "attendee.*")
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}
	defer consumer.Close()

	handler := app.NewEventHandler(app.NewNotificationService(repo, logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for d := range deliveries {
			handle(ctx, handler, d, logger)
		}
	}()

	logger.WithField("queue", queueName).Info("Notifier started")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-done:
		logger.Error("delivery channel closed")
	}
	logger.Info("Shutdown notifier")
}

// handle acks processed messages, drops malformed ones and requeues the rest.
func handle(ctx context.Context, h *app.EventHandler, d amqp.Delivery, logger observability.Logger) {
	log := logger.WithField("routing_key", d.RoutingKey).WithField("message_id", d.MessageId)
	err := h.Handle(ctx, d.RoutingKey, d.MessageId, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.WithError(ackErr).Warn("ack failed")
		}
	case errors.Is(err, domain.ErrInvalidInput):
		log.WithError(err).Warn("dropping malformed event")
		_ = d.Nack(false, false)
	default:
		log.WithError(err).Error("event handling failed, requeueing")
		_ = d.Nack(false, true)
	}
}
