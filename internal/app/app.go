// Package app holds the EventHub use cases. Services depend on small store
// interfaces so the HTTP layer, workers and tests can share them.
package app

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
)

// Routing keys written to the outbox and consumed by the notifier.
const (
	EventTicketCanceled    = "ticket.canceled"
	EventTicketPast        = "ticket.past"
	EventAttendeeCheckedIn = "attendee.checked_in"
	EventAttendeeCancelled = "attendee.cancelled"
)

type StatsCache interface {
	GetStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)
	SetStats(ctx context.Context, userID uuid.UUID, stats domain.UserStats, ttl time.Duration) error
	InvalidateStats(ctx context.Context, userID uuid.UUID) error
}

type Auditor interface {
	LogTicket(ctx context.Context, action string, ticket domain.Ticket) error
	LogAttendee(ctx context.Context, action string, actor uuid.UUID, attendee domain.Attendee) error
}

// retrySerialization runs fn again after a serialization failure, up to
// attempts times in total, backing off exponentially from 50ms.
func retrySerialization(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); !errors.Is(err, domain.ErrSerializationFailure) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(1<<i) * 50 * time.Millisecond):
		}
	}
	return err
}
