package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTickets() []domain.Ticket {
	return []domain.Ticket{
		{ID: uuid.New(), EventTitle: "Tech Conference 2023", Location: "San Francisco, CA", Status: domain.TicketUpcoming, Price: 299},
		{ID: uuid.New(), EventTitle: "Music Fest", Location: "Austin, TX", Status: domain.TicketPast, Price: 89},
		{ID: uuid.New(), EventTitle: "Startup Pitch Night", Location: "San Jose, CA", Status: domain.TicketCanceled, Price: 25},
		{ID: uuid.New(), EventTitle: "Design Conference", Location: "New York, NY", Status: domain.TicketUsed, Price: 150},
	}
}

func TestFilterTickets_ByStatus(t *testing.T) {
	t1 := domain.Ticket{ID: uuid.New(), Status: domain.TicketUpcoming, EventTitle: "Tech Conference"}
	t2 := domain.Ticket{ID: uuid.New(), Status: domain.TicketPast, EventTitle: "Music Fest"}

	got := domain.FilterTickets([]domain.Ticket{t1, t2}, domain.TicketFilter{Status: "upcoming"})

	assert.Equal(t, []domain.Ticket{t1}, got)
}

func TestFilterTickets_OnlyMatchingStatus(t *testing.T) {
	tickets := sampleTickets()
	for _, st := range []domain.TicketStatus{domain.TicketUpcoming, domain.TicketPast, domain.TicketCanceled, domain.TicketUsed} {
		got := domain.FilterTickets(tickets, domain.TicketFilter{Status: string(st)})
		require.Len(t, got, 1)
		for _, tk := range got {
			assert.Equal(t, st, tk.Status)
		}
	}
}

func TestFilterTickets_AllAndEmptyStatusKeepEverything(t *testing.T) {
	tickets := sampleTickets()
	assert.Len(t, domain.FilterTickets(tickets, domain.TicketFilter{Status: "all"}), len(tickets))
	assert.Len(t, domain.FilterTickets(tickets, domain.TicketFilter{}), len(tickets))
}

func TestFilterTickets_SearchIsCaseInsensitive(t *testing.T) {
	got := domain.FilterTickets(sampleTickets(), domain.TicketFilter{Search: "CONFERENCE"})

	require.Len(t, got, 2)
	assert.Equal(t, "Tech Conference 2023", got[0].EventTitle)
	assert.Equal(t, "Design Conference", got[1].EventTitle)
}

func TestFilterTickets_CombinesPredicates(t *testing.T) {
	got := domain.FilterTickets(sampleTickets(), domain.TicketFilter{Status: "upcoming", Search: "tech", Location: "san francisco"})
	require.Len(t, got, 1)
	assert.Equal(t, "Tech Conference 2023", got[0].EventTitle)

	got = domain.FilterTickets(sampleTickets(), domain.TicketFilter{Location: ", ca"})
	assert.Len(t, got, 2)

	got = domain.FilterTickets(sampleTickets(), domain.TicketFilter{Status: "past", Location: "ca"})
	assert.Empty(t, got)
}

func TestFilterTickets_Idempotent(t *testing.T) {
	f := domain.TicketFilter{Status: "upcoming", Search: "conf"}
	once := domain.FilterTickets(sampleTickets(), f)
	twice := domain.FilterTickets(once, f)
	assert.Equal(t, once, twice)
}

func TestFilterTickets_EmptyInput(t *testing.T) {
	got := domain.FilterTickets(nil, domain.TicketFilter{Status: "upcoming"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterTickets_DoesNotMutateInput(t *testing.T) {
	tickets := sampleTickets()
	before := append([]domain.Ticket(nil), tickets...)
	domain.FilterTickets(tickets, domain.TicketFilter{Status: "past"})
	assert.Equal(t, before, tickets)
}

func TestTicketFilter_Validate(t *testing.T) {
	assert.NoError(t, domain.TicketFilter{}.Validate())
	assert.NoError(t, domain.TicketFilter{Status: "All"}.Validate())
	assert.NoError(t, domain.TicketFilter{Status: "canceled"}.Validate())
	assert.ErrorIs(t, domain.TicketFilter{Status: "refunded"}.Validate(), domain.ErrInvalidInput)
}

func TestCancelTicket_ReflectedInCounts(t *testing.T) {
	tickets := sampleTickets()
	tickets[2].Status = domain.TicketPast
	before := domain.CountTicketsByTab(tickets)
	require.Equal(t, 0, before.Canceled)

	require.NoError(t, domain.CancelTicket(&tickets[0]))

	after := domain.CountTicketsByTab(tickets)
	assert.Equal(t, 1, after.Canceled)
	assert.Equal(t, before.Upcoming-1, after.Upcoming)
	assert.Equal(t, before.All, after.All)
}

func TestCancelTicket_RejectsNonUpcoming(t *testing.T) {
	for _, st := range []domain.TicketStatus{domain.TicketPast, domain.TicketCanceled, domain.TicketUsed} {
		tk := domain.Ticket{Status: st}
		err := domain.CancelTicket(&tk)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, st, tk.Status)
	}
}

func TestMarkPast(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	started := domain.Ticket{Status: domain.TicketUpcoming, EventDate: now.Add(-time.Hour)}
	assert.True(t, domain.MarkPast(&started, now))
	assert.Equal(t, domain.TicketPast, started.Status)

	future := domain.Ticket{Status: domain.TicketUpcoming, EventDate: now.Add(time.Hour)}
	assert.False(t, domain.MarkPast(&future, now))

	canceled := domain.Ticket{Status: domain.TicketCanceled, EventDate: now.Add(-time.Hour)}
	assert.False(t, domain.MarkPast(&canceled, now))
	assert.Equal(t, domain.TicketCanceled, canceled.Status)
}

func TestComputeUserStats(t *testing.T) {
	ev := uuid.New()
	tickets := []domain.Ticket{
		{EventID: ev, Status: domain.TicketUpcoming, Price: 100},
		{EventID: ev, Status: domain.TicketUpcoming, Price: 100},
		{EventID: uuid.New(), Status: domain.TicketPast, Price: 50},
		{EventID: uuid.New(), Status: domain.TicketUsed, Price: 20},
		{EventID: uuid.New(), Status: domain.TicketCanceled, Price: 75},
	}

	s := domain.ComputeUserStats(tickets)

	assert.Equal(t, domain.UserStats{
		UpcomingEvents:  1,
		PastEvents:      2,
		CanceledTickets: 1,
		TotalTickets:    5,
		TotalSpent:      270,
	}, s)
}
