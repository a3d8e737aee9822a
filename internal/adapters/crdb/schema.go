package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS tickets (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	event_id UUID NOT NULL,
	event_title TEXT NOT NULL,
	event_date TIMESTAMPTZ NOT NULL,
	event_time TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	ticket_type TEXT NOT NULL,
	price NUMERIC NOT NULL DEFAULT 0,
	purchase_date TIMESTAMPTZ NOT NULL DEFAULT now(),
	status TEXT NOT NULL CHECK (status IN ('upcoming', 'past', 'canceled', 'used')),
	INDEX tickets_user_idx (user_id),
	INDEX tickets_status_date_idx (status, event_date)
);

CREATE TABLE IF NOT EXISTS attendees (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL,
	user_id UUID,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	ticket_type TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('confirmed', 'cancelled', 'pending')),
	check_in_status BOOL NOT NULL DEFAULT false,
	check_in_time TIMESTAMPTZ,
	INDEX attendees_event_idx (event_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	read BOOL NOT NULL DEFAULT false,
	event_id UUID,
	ticket_id UUID,
	dedupe_key TEXT,
	INDEX notifications_user_idx (user_id, created_at DESC),
	UNIQUE (user_id, dedupe_key)
);

CREATE TABLE IF NOT EXISTS outbox (
	id UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id UUID NOT NULL,
	event_type TEXT NOT NULL,
	payload_json BYTES NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at TIMESTAMPTZ,
	status TEXT NOT NULL DEFAULT 'NEW' CHECK (status IN ('NEW', 'PUBLISHED', 'FAILED')),
	dedupe_key TEXT NOT NULL,
	INDEX outbox_status_idx (status, created_at)
);
`

// EnsureSchema creates the tables this repository uses if they are missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "ensure schema")
	}
	return nil
}

// Reset removes all rows. Only the seed tool calls it.
func (r *Repository) Reset(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `TRUNCATE tickets, attendees, notifications, outbox`)
	return errors.Wrap(err, "reset tables")
}
