package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicketFixture(t *testing.T) (*TicketService, *fakeTickets, *fakeCache, *fakeAudit, uuid.UUID) {
	t.Helper()
	user := uuid.New()
	tickets := newFakeTickets(
		domain.Ticket{ID: uuid.New(), UserID: user, EventID: uuid.New(), EventTitle: "Tech Conference 2023", Location: "San Francisco, CA", EventDate: time.Now().Add(48 * time.Hour), Price: 299, Status: domain.TicketUpcoming},
		domain.Ticket{ID: uuid.New(), UserID: user, EventID: uuid.New(), EventTitle: "Music Fest", Location: "Austin, TX", EventDate: time.Now().Add(-48 * time.Hour), Price: 89, Status: domain.TicketPast},
		domain.Ticket{ID: uuid.New(), UserID: uuid.New(), EventID: uuid.New(), EventTitle: "Other", Status: domain.TicketUpcoming},
	)
	cache := newFakeCache()
	audit := &fakeAudit{}
	return NewTicketService(tickets, cache, audit, time.Minute, observability.NewDiscardLogger()), tickets, cache, audit, user
}

func firstTicket(t *testing.T, f *fakeTickets, user uuid.UUID, status domain.TicketStatus) domain.Ticket {
	t.Helper()
	for _, tk := range f.tickets {
		if tk.UserID == user && tk.Status == status {
			return tk
		}
	}
	t.Fatalf("no %s ticket for user", status)
	return domain.Ticket{}
}

func TestTicketService_MyTicketsFilters(t *testing.T) {
	svc, _, _, _, user := newTicketFixture(t)
	ctx := context.Background()

	all, err := svc.MyTickets(ctx, user, domain.TicketFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	upcoming, err := svc.MyTickets(ctx, user, domain.TicketFilter{Status: "upcoming", Search: "tech"})
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Tech Conference 2023", upcoming[0].EventTitle)

	_, err = svc.MyTickets(ctx, user, domain.TicketFilter{Status: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTicketService_CancelUpdatesCounts(t *testing.T) {
	svc, tickets, cache, audit, user := newTicketFixture(t)
	ctx := context.Background()
	tk := firstTicket(t, tickets, user, domain.TicketUpcoming)

	before, err := svc.Counts(ctx, user)
	require.NoError(t, err)

	got, err := svc.Cancel(ctx, user, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketCanceled, got.Status)
	assert.Equal(t, []string{EventTicketCanceled}, tickets.events)
	assert.Equal(t, []uuid.UUID{user}, cache.invalidated)
	assert.Equal(t, []string{EventTicketCanceled}, audit.actions)

	after, err := svc.Counts(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, before.Upcoming-1, after.Upcoming)
	assert.Equal(t, before.Canceled+1, after.Canceled)
	assert.Equal(t, before.All, after.All)
}

func TestTicketService_CancelRejectsOthersAndNonUpcoming(t *testing.T) {
	svc, tickets, _, _, user := newTicketFixture(t)
	ctx := context.Background()

	past := firstTicket(t, tickets, user, domain.TicketPast)
	_, err := svc.Cancel(ctx, user, past.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	other := uuid.New()
	upcoming := firstTicket(t, tickets, user, domain.TicketUpcoming)
	_, err = svc.Cancel(ctx, other, upcoming.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.TicketUpcoming, tickets.tickets[upcoming.ID].Status)
}

func TestTicketService_CancelRetriesSerializationFailure(t *testing.T) {
	svc, tickets, _, _, user := newTicketFixture(t)
	tickets.updateErrs = []error{domain.ErrSerializationFailure}
	tk := firstTicket(t, tickets, user, domain.TicketUpcoming)

	got, err := svc.Cancel(context.Background(), user, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketCanceled, got.Status)
}

func TestTicketService_StatsUsesCache(t *testing.T) {
	svc, tickets, cache, _, user := newTicketFixture(t)
	ctx := context.Background()

	stats, err := svc.Stats(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalTickets)
	assert.Equal(t, 1, stats.UpcomingEvents)
	assert.InDelta(t, 388.0, stats.TotalSpent, 0.001)

	// A stale cached value wins until it is invalidated.
	cache.stats[user] = domain.UserStats{TotalTickets: 42}
	cached, err := svc.Stats(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 42, cached.TotalTickets)

	tk := firstTicket(t, tickets, user, domain.TicketUpcoming)
	_, err = svc.Cancel(ctx, user, tk.ID)
	require.NoError(t, err)

	fresh, err := svc.Stats(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.CanceledTickets)
	assert.Equal(t, 0, fresh.UpcomingEvents)
}

func TestTicketService_StatsFallsBackOnCacheError(t *testing.T) {
	svc, _, cache, _, user := newTicketFixture(t)
	cache.getErr = assert.AnError

	stats, err := svc.Stats(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalTickets)
}
