package domain_test

import (
	"testing"
	"time"

	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAttendees() []domain.Attendee {
	return []domain.Attendee{
		{Name: "John Smith", Email: "john@example.com", TicketType: "VIP", Status: domain.AttendeeConfirmed},
		{Name: "Sarah Johnson", Email: "sarah.j@example.com", TicketType: "General Admission", Status: domain.AttendeeConfirmed, CheckInStatus: true},
		{Name: "Michael Brown", Email: "mbrown@example.com", TicketType: "General Admission", Status: domain.AttendeePending},
		{Name: "Emily Davis", Email: "emily@example.com", TicketType: "VIP", Status: domain.AttendeeCancelled},
	}
}

func TestFilterAttendees(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.AttendeeFilter
		want   []string
	}{
		{"no filter", domain.AttendeeFilter{}, []string{"John Smith", "Sarah Johnson", "Michael Brown", "Emily Davis"}},
		{"search by name", domain.AttendeeFilter{Search: "JOHN"}, []string{"John Smith", "Sarah Johnson"}},
		{"search by email", domain.AttendeeFilter{Search: "mbrown@"}, []string{"Michael Brown"}},
		{"status", domain.AttendeeFilter{Status: "confirmed"}, []string{"John Smith", "Sarah Johnson"}},
		{"ticket type", domain.AttendeeFilter{TicketType: "vip"}, []string{"John Smith", "Emily Davis"}},
		{"all selectors", domain.AttendeeFilter{Status: "all", TicketType: "all"}, []string{"John Smith", "Sarah Johnson", "Michael Brown", "Emily Davis"}},
		{"combined", domain.AttendeeFilter{Search: "example.com", Status: "cancelled", TicketType: "VIP"}, []string{"Emily Davis"}},
		{"no match", domain.AttendeeFilter{Search: "zoe"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.FilterAttendees(sampleAttendees(), tt.filter)
			names := make([]string, 0, len(got))
			for _, a := range got {
				names = append(names, a.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestAttendee_CheckIn(t *testing.T) {
	now := time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC)

	for _, st := range []domain.AttendeeStatus{domain.AttendeeConfirmed, domain.AttendeePending} {
		a := domain.Attendee{Status: st}
		require.NoError(t, a.CheckIn(now))
		assert.True(t, a.CheckInStatus)
		require.NotNil(t, a.CheckInTime)
		assert.Equal(t, now, *a.CheckInTime)
		assert.Equal(t, st, a.Status)
	}
}

func TestAttendee_CheckInTwice(t *testing.T) {
	a := domain.Attendee{Status: domain.AttendeeConfirmed}
	first := time.Now()
	require.NoError(t, a.CheckIn(first))

	err := a.CheckIn(first.Add(time.Minute))

	assert.ErrorIs(t, err, domain.ErrAlreadyCheckedIn)
	assert.Equal(t, first, *a.CheckInTime)
}

func TestAttendee_CheckInCancelled(t *testing.T) {
	a := domain.Attendee{Status: domain.AttendeeCancelled}
	assert.ErrorIs(t, a.CheckIn(time.Now()), domain.ErrInvalidTransition)
	assert.False(t, a.CheckInStatus)
	assert.Nil(t, a.CheckInTime)
}

func TestAttendee_Cancel(t *testing.T) {
	a := domain.Attendee{Status: domain.AttendeeConfirmed}
	require.NoError(t, a.Cancel())
	assert.Equal(t, domain.AttendeeCancelled, a.Status)

	assert.ErrorIs(t, a.Cancel(), domain.ErrInvalidTransition)

	pending := domain.Attendee{Status: domain.AttendeePending}
	assert.ErrorIs(t, pending.Cancel(), domain.ErrInvalidTransition)
}

func TestAttendee_CancelAfterCheckIn(t *testing.T) {
	a := domain.Attendee{Status: domain.AttendeeConfirmed}
	require.NoError(t, a.CheckIn(time.Now()))

	require.NoError(t, a.Cancel())
	assert.Equal(t, domain.AttendeeCancelled, a.Status)
	assert.True(t, a.CheckInStatus)
}

func TestSummarizeAttendees(t *testing.T) {
	s := domain.SummarizeAttendees(sampleAttendees())
	assert.Equal(t, domain.AttendeeSummary{Total: 4, Confirmed: 2, Pending: 1, Cancelled: 1, CheckedIn: 1}, s)
}
