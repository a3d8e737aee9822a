package seed

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
	"golang.org/x/sync/errgroup"
)

type UserWriter interface {
	DeleteAll(ctx context.Context) error
	EnsureIndexes(ctx context.Context) error
	CreateUser(ctx context.Context, u domain.User) error
}

type EventWriter interface {
	DeleteAll(ctx context.Context) error
	CreateEvent(ctx context.Context, e domain.Event) error
}

// LedgerWriter is the transactional store holding tickets, attendees and
// notifications.
type LedgerWriter interface {
	EnsureSchema(ctx context.Context) error
	Reset(ctx context.Context) error
	InsertTickets(ctx context.Context, tickets []domain.Ticket) error
	InsertAttendees(ctx context.Context, attendees []domain.Attendee) error
	CreateNotification(ctx context.Context, n domain.Notification, dedupeKey string) (bool, error)
}

type Seeder struct {
	users  UserWriter
	events EventWriter
	ledger LedgerWriter
	logger observability.Logger
}

// NewSeeder takes a nil ledger to seed only the catalog.
func NewSeeder(users UserWriter, events EventWriter, ledger LedgerWriter, logger observability.Logger) *Seeder {
	return &Seeder{users: users, events: events, ledger: ledger, logger: logger}
}

// Run clears every store it owns and writes ds. Catalog and ledger are
// independent, so each phase runs them concurrently.
func (s *Seeder) Run(ctx context.Context, ds Dataset) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.users.DeleteAll(gctx); err != nil {
			return errors.Wrap(err, "clear users")
		}
		return errors.Wrap(s.users.EnsureIndexes(gctx), "user indexes")
	})
	g.Go(func() error { return errors.Wrap(s.events.DeleteAll(gctx), "clear events") })
	if s.ledger != nil {
		g.Go(func() error {
			if err := s.ledger.EnsureSchema(gctx); err != nil {
				return errors.Wrap(err, "ensure schema")
			}
			return errors.Wrap(s.ledger.Reset(gctx), "reset ledger")
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		for _, u := range ds.Users {
			if err := s.users.CreateUser(gctx, u); err != nil {
				return errors.Wrapf(err, "create user %s", u.Email)
			}
		}
		return nil
	})
	g.Go(func() error {
		for _, e := range ds.Events {
			if err := s.events.CreateEvent(gctx, e); err != nil {
				return errors.Wrapf(err, "create event %q", e.Title)
			}
		}
		return nil
	})
	if s.ledger != nil {
		g.Go(func() error { return s.writeLedger(gctx, ds) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.WithField("users", len(ds.Users)).
		WithField("events", len(ds.Events)).
		WithField("tickets", len(ds.Tickets)).
		WithField("attendees", len(ds.Attendees)).
		WithField("notifications", len(ds.Notifications)).
		Info("seed complete")
	return nil
}

func (s *Seeder) writeLedger(ctx context.Context, ds Dataset) error {
	if len(ds.Tickets) > 0 {
		if err := s.ledger.InsertTickets(ctx, ds.Tickets); err != nil {
			return errors.Wrap(err, "insert tickets")
		}
	}
	if len(ds.Attendees) > 0 {
		if err := s.ledger.InsertAttendees(ctx, ds.Attendees); err != nil {
			return errors.Wrap(err, "insert attendees")
		}
	}
	for _, n := range ds.Notifications {
		if _, err := s.ledger.CreateNotification(ctx, n, "seed:"+n.ID.String()); err != nil {
			return errors.Wrapf(err, "insert notification %q", n.Title)
		}
	}
	return nil
}
