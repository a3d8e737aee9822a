package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/adapters/crdb"
	"github.com/robertarktes/eventhub/internal/observability"
)

type Store interface {
	GetUnpublishedOutbox(ctx context.Context, limit int) ([]crdb.OutboxRecord, error)
	MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error
	PurgePublished(ctx context.Context, cutoff time.Time) (int, error)
}

const (
	// Retention is how long published rows are kept for inspection.
	Retention  = 24 * time.Hour
	purgeEvery = time.Hour
)

type Broker interface {
	PublishJSON(ctx context.Context, key, messageID string, body []byte) error
}

// Publisher relays outbox rows to the broker in creation order. A row is
// marked published only after the broker accepted it, so delivery is at
// least once and consumers dedupe on the message id.
type Publisher struct {
	store    Store
	broker   Broker
	logger   observability.Logger
	interval time.Duration
	batch    int
	now      func() time.Time

	lastPurge time.Time
}

func NewPublisher(store Store, broker Broker, logger observability.Logger, interval time.Duration, batch int) *Publisher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &Publisher{store: store, broker: broker, logger: logger, interval: interval, batch: batch, now: time.Now}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PublishBatch(ctx)
			if err != nil {
				p.logger.WithError(err).Error("outbox batch failed")
				continue
			}
			if n > 0 {
				p.logger.WithField("count", n).Debug("outbox batch published")
			}
			if p.now().Sub(p.lastPurge) >= purgeEvery {
				if _, err := p.Purge(ctx); err != nil {
					p.logger.WithError(err).Warn("outbox purge failed")
				}
			}
		}
	}
}

// PublishBatch publishes up to one batch and returns how many rows were
// marked published. It stops at the first failure to keep ordering.
func (p *Publisher) PublishBatch(ctx context.Context) (int, error) {
	records, err := p.store.GetUnpublishedOutbox(ctx, p.batch)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		observability.OutboxLag.Set(0)
		return 0, nil
	}
	observability.OutboxLag.Set(p.now().Sub(records[0].CreatedAt).Seconds())

	published := 0
	for _, rec := range records {
		log := p.logger.WithField("outbox_id", rec.ID).WithField("event_type", rec.EventType)
		if err := p.broker.PublishJSON(ctx, rec.EventType, rec.DedupeKey, rec.Payload); err != nil {
			log.WithError(err).Warn("publish failed")
			return published, err
		}
		if err := p.store.MarkPublished(ctx, rec.ID, p.now().UTC()); err != nil {
			log.WithError(err).Error("mark published failed")
			return published, err
		}
		published++
	}
	return published, nil
}

// Purge removes rows published more than Retention ago.
func (p *Publisher) Purge(ctx context.Context) (int, error) {
	now := p.now()
	n, err := p.store.PurgePublished(ctx, now.Add(-Retention).UTC())
	if err != nil {
		return 0, err
	}
	p.lastPurge = now
	if n > 0 {
		p.logger.WithField("count", n).Info("purged published outbox rows")
	}
	return n, nil
}
