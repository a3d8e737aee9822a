package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerFixture() (*EventHandler, *fakeNotifications) {
	store := newFakeNotifications()
	logger := observability.NewDiscardLogger()
	return NewEventHandler(NewNotificationService(store, logger), logger), store
}

func TestEventHandler_TicketCanceled(t *testing.T) {
	h, store := newHandlerFixture()
	tk := domain.Ticket{ID: uuid.New(), UserID: uuid.New(), EventID: uuid.New(), EventTitle: "Music Fest", TicketType: "VIP", Status: domain.TicketCanceled}
	body, err := json.Marshal(tk)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), EventTicketCanceled, "m-1", body))
	// Redelivery of the same message is absorbed.
	require.NoError(t, h.Handle(context.Background(), EventTicketCanceled, "m-1", body))

	require.Len(t, store.items, 1)
	n := store.items[0]
	assert.Equal(t, tk.UserID, n.UserID)
	assert.Equal(t, domain.NotificationTicketCanceled, n.Type)
	assert.Equal(t, tk.ID, *n.TicketID)
	assert.Contains(t, n.Message, "Music Fest")
}

func TestEventHandler_Attendees(t *testing.T) {
	h, store := newHandlerFixture()
	a := domain.Attendee{ID: uuid.New(), EventID: uuid.New(), UserID: uuid.New(), Name: "Jane", TicketType: "VIP"}
	body, err := json.Marshal(a)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), EventAttendeeCheckedIn, "m-1", body))
	require.NoError(t, h.Handle(context.Background(), EventAttendeeCancelled, "m-2", body))
	require.Len(t, store.items, 2)
	assert.Equal(t, domain.NotificationCheckIn, store.items[0].Type)
	assert.Equal(t, domain.NotificationTicketCanceled, store.items[1].Type)

	guest, err := json.Marshal(domain.Attendee{ID: uuid.New(), EventID: uuid.New()})
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), EventAttendeeCheckedIn, "m-3", guest))
	assert.Len(t, store.items, 2)
}

func TestEventHandler_BadInput(t *testing.T) {
	h, store := newHandlerFixture()

	err := h.Handle(context.Background(), EventTicketCanceled, "m-1", []byte("{"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.NoError(t, h.Handle(context.Background(), "ticket.past", "m-2", []byte("{}")))
	assert.NoError(t, h.Handle(context.Background(), "something.else", "m-3", nil))
	assert.Empty(t, store.items)
}
