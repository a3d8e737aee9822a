package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
)

type LifecycleStore interface {
	ListUpcomingTickets(ctx context.Context, before time.Time) ([]domain.Ticket, error)
	UpdateTicket(ctx context.Context, id uuid.UUID, eventType string, mutate func(*domain.Ticket) error) (domain.Ticket, error)
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification, dedupeKey string) (bool, error)
}

// errUnchanged aborts a ticket update whose state moved on since it was listed.
var errUnchanged = errors.New("ticket unchanged")

type SweepResult struct {
	Expired  int
	Reminded int
	Failed   int
}

// Lifecycle moves tickets whose event has started to past and sends one
// reminder per ticket for events inside the reminder window.
type Lifecycle struct {
	tickets        LifecycleStore
	notifier       Notifier
	cache          StatsCache
	reminderWindow time.Duration
	logger         observability.Logger
}

func NewLifecycle(tickets LifecycleStore, notifier Notifier, cache StatsCache, reminderWindow time.Duration, logger observability.Logger) *Lifecycle {
	return &Lifecycle{tickets: tickets, notifier: notifier, cache: cache, reminderWindow: reminderWindow, logger: logger}
}

func ReminderKey(ticketID uuid.UUID) string {
	return "reminder:" + ticketID.String()
}

func (l *Lifecycle) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult

	due, err := l.tickets.ListUpcomingTickets(ctx, now)
	if err != nil {
		return res, errors.Wrap(err, "list due tickets")
	}
	for _, t := range due {
		if err := l.expire(ctx, t.ID, now); err != nil {
			if errors.Is(err, errUnchanged) {
				continue
			}
			res.Failed++
			l.logger.WithError(err).WithField("ticket_id", t.ID).Error("failed to mark ticket past")
			continue
		}
		res.Expired++
		observability.TicketTransitions.WithLabelValues(string(domain.TicketPast)).Inc()
		if err := l.cache.InvalidateStats(ctx, t.UserID); err != nil {
			l.logger.WithError(err).WithField("user_id", t.UserID).Warn("failed to invalidate stats cache")
		}
	}

	soon, err := l.tickets.ListUpcomingTickets(ctx, now.Add(l.reminderWindow))
	if err != nil {
		return res, errors.Wrap(err, "list tickets to remind")
	}
	for _, t := range soon {
		if !t.EventDate.After(now) {
			continue
		}
		created, err := l.notifier.Notify(ctx, reminderFor(t), ReminderKey(t.ID))
		if err != nil {
			res.Failed++
			l.logger.WithError(err).WithField("ticket_id", t.ID).Error("failed to send reminder")
			continue
		}
		if created {
			res.Reminded++
		}
	}
	return res, nil
}

func (l *Lifecycle) expire(ctx context.Context, id uuid.UUID, now time.Time) error {
	return retrySerialization(ctx, 3, func() error {
		_, err := l.tickets.UpdateTicket(ctx, id, EventTicketPast, func(t *domain.Ticket) error {
			if !domain.MarkPast(t, now) {
				return errUnchanged
			}
			return nil
		})
		return err
	})
}

func reminderFor(t domain.Ticket) domain.Notification {
	eventID, ticketID := t.EventID, t.ID
	when := t.EventDate.Format("Jan 2")
	if t.EventTime != "" {
		when += " at " + t.EventTime
	}
	return domain.Notification{
		UserID:   t.UserID,
		Type:     domain.NotificationEventReminder,
		Title:    "Event Reminder",
		Message:  fmt.Sprintf("%s is coming up on %s at %s.", t.EventTitle, when, t.Location),
		EventID:  &eventID,
		TicketID: &ticketID,
	}
}
