package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
)

type TicketStore interface {
	ListTicketsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Ticket, error)
	UpdateTicket(ctx context.Context, id uuid.UUID, eventType string, mutate func(*domain.Ticket) error) (domain.Ticket, error)
}

type TicketService struct {
	tickets  TicketStore
	cache    StatsCache
	audit    Auditor
	statsTTL time.Duration
	logger   observability.Logger
}

func NewTicketService(tickets TicketStore, cache StatsCache, audit Auditor, statsTTL time.Duration, logger observability.Logger) *TicketService {
	return &TicketService{tickets: tickets, cache: cache, audit: audit, statsTTL: statsTTL, logger: logger}
}

func (s *TicketService) MyTickets(ctx context.Context, userID uuid.UUID, f domain.TicketFilter) ([]domain.Ticket, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListTicketsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.FilterTickets(tickets, f), nil
}

func (s *TicketService) Counts(ctx context.Context, userID uuid.UUID) (domain.TicketTabCounts, error) {
	tickets, err := s.tickets.ListTicketsByUser(ctx, userID)
	if err != nil {
		return domain.TicketTabCounts{}, err
	}
	return domain.CountTicketsByTab(tickets), nil
}

// Cancel cancels one of the caller's upcoming tickets. Tickets owned by
// someone else are reported as not found.
func (s *TicketService) Cancel(ctx context.Context, userID, ticketID uuid.UUID) (domain.Ticket, error) {
	var ticket domain.Ticket
	err := retrySerialization(ctx, 3, func() error {
		var err error
		ticket, err = s.tickets.UpdateTicket(ctx, ticketID, EventTicketCanceled, func(t *domain.Ticket) error {
			if t.UserID != userID {
				return domain.ErrNotFound
			}
			return domain.CancelTicket(t)
		})
		return err
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	observability.TicketTransitions.WithLabelValues(string(ticket.Status)).Inc()

	log := s.logger.WithField("ticket_id", ticket.ID)
	if err := s.cache.InvalidateStats(ctx, userID); err != nil {
		log.WithError(err).Warn("failed to invalidate stats cache")
	}
	if s.audit != nil {
		if err := s.audit.LogTicket(ctx, EventTicketCanceled, ticket); err != nil {
			log.WithError(err).Warn("failed to audit ticket cancel")
		}
	}
	return ticket, nil
}

// Stats serves from cache when possible. Cache failures fall back to the
// store.
func (s *TicketService) Stats(ctx context.Context, userID uuid.UUID) (domain.UserStats, error) {
	log := s.logger.WithField("user_id", userID)
	cached, err := s.cache.GetStats(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("stats cache read failed")
	}
	if cached != nil {
		return *cached, nil
	}

	tickets, err := s.tickets.ListTicketsByUser(ctx, userID)
	if err != nil {
		return domain.UserStats{}, err
	}
	stats := domain.ComputeUserStats(tickets)
	if err := s.cache.SetStats(ctx, userID, stats, s.statsTTL); err != nil {
		log.WithError(err).Warn("stats cache write failed")
	}
	return stats, nil
}
