package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, domain.Percent(5, 0))
	assert.Equal(t, 50.0, domain.Percent(1, 2))
	assert.Equal(t, 33.3, domain.Percent(1, 3))
	assert.Equal(t, 66.7, domain.Percent(2, 3))
	assert.Equal(t, 100.0, domain.Percent(4, 4))
}

func TestBuildEventAnalytics(t *testing.T) {
	organizer := uuid.New()
	event := domain.Event{
		ID:          uuid.New(),
		OrganizerID: organizer,
		TicketTypes: []domain.TicketType{
			{Name: "General Admission", Price: 50, Quantity: 8},
			{Name: "VIP", Price: 200, Quantity: 2},
		},
	}
	attendees := []domain.Attendee{
		{TicketType: "general admission", Status: domain.AttendeeConfirmed, CheckInStatus: true},
		{TicketType: "General Admission", Status: domain.AttendeeConfirmed},
		{TicketType: "General Admission", Status: domain.AttendeePending},
		{TicketType: "VIP", Status: domain.AttendeeConfirmed, CheckInStatus: true},
		{TicketType: "VIP", Status: domain.AttendeeCancelled},
	}

	a := domain.BuildEventAnalytics(event, attendees)

	assert.Equal(t, event.ID, a.EventID)
	assert.Equal(t, 10, a.Capacity)
	assert.Equal(t, 4, a.TicketsSold)
	assert.Equal(t, 1, a.Cancelled)
	assert.Equal(t, 2, a.CheckedIn)
	assert.Equal(t, 350.0, a.Revenue)
	assert.Equal(t, 40.0, a.SoldPercent)
	assert.Equal(t, 50.0, a.CheckInRate)
	require.Len(t, a.ByTicketType, 2)
	assert.Equal(t, domain.TicketTypeStats{Name: "General Admission", Price: 50, Capacity: 8, Sold: 3, Revenue: 150, SoldPercent: 37.5, SharePercent: 75}, a.ByTicketType[0])
	assert.Equal(t, domain.TicketTypeStats{Name: "VIP", Price: 200, Capacity: 2, Sold: 1, Revenue: 200, SoldPercent: 50, SharePercent: 25}, a.ByTicketType[1])
}

func TestBuildEventAnalytics_UnknownTicketType(t *testing.T) {
	event := domain.Event{ID: uuid.New()}
	a := domain.BuildEventAnalytics(event, []domain.Attendee{{TicketType: "Comp", Status: domain.AttendeeConfirmed}})

	assert.Equal(t, 1, a.TicketsSold)
	assert.Equal(t, 0.0, a.SoldPercent)
	require.Len(t, a.ByTicketType, 1)
	assert.Equal(t, "Comp", a.ByTicketType[0].Name)
	assert.Equal(t, 100.0, a.ByTicketType[0].SharePercent)
}

func TestEvent_ManagedBy(t *testing.T) {
	owner := uuid.New()
	e := domain.Event{OrganizerID: owner}

	assert.True(t, e.ManagedBy(owner, domain.RoleOrganizer))
	assert.True(t, e.ManagedBy(uuid.New(), domain.RoleAdmin))
	assert.False(t, e.ManagedBy(uuid.New(), domain.RoleOrganizer))
	assert.False(t, e.ManagedBy(owner, domain.RoleUser))
}
