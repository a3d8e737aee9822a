package crdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	AggregateTicket   = "ticket"
	AggregateAttendee = "attendee"

	outboxNew       = "NEW"
	outboxPublished = "PUBLISHED"
)

// OutboxRecord is a domain event waiting to be relayed to the broker. The
// payload is the aggregate's JSON after the change; DedupeKey travels as the
// message id.
type OutboxRecord struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Status        string
	DedupeKey     string
}

// enqueue writes the snapshot v inside tx so the event commits or rolls back
// with the state change it describes.
func (r *Repository) enqueue(ctx context.Context, tx pgx.Tx, aggregateType string, aggregateID uuid.UUID, eventType string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s payload", eventType)
	}
	id := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload_json, status, dedupe_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, aggregateType, aggregateID, eventType, payload, outboxNew, id.String())
	return errors.Wrap(err, "insert outbox")
}

// GetUnpublishedOutbox returns the oldest pending records first.
func (r *Repository) GetUnpublishedOutbox(ctx context.Context, limit int) ([]OutboxRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload_json, created_at, published_at, status, dedupe_key
		FROM outbox WHERE status = $1 ORDER BY created_at ASC, id ASC LIMIT $2
	`, outboxNew, limit)
	if err != nil {
		return nil, errors.Wrap(err, "get unpublished outbox")
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[OutboxRecord])
	return records, errors.Wrap(err, "scan outbox")
}

// MarkPublished is a no-op for records that are already published.
func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox SET status = $3, published_at = $2 WHERE id = $1 AND status = $4
	`, id, publishedAt, outboxPublished, outboxNew)
	return errors.Wrap(err, "mark published")
}

// PurgePublished deletes records published before cutoff and returns how many
// were removed.
func (r *Repository) PurgePublished(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM outbox WHERE status = $1 AND published_at < $2
	`, outboxPublished, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "purge outbox")
	}
	return int(tag.RowsAffected()), nil
}
