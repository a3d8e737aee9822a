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

func newNotificationFixture() (*NotificationService, *fakeNotifications, uuid.UUID, []domain.Notification) {
	user := uuid.New()
	ns := []domain.Notification{
		{ID: uuid.New(), UserID: user, Type: domain.NotificationEventReminder, Title: "Event Reminder", Message: "Tomorrow"},
		{ID: uuid.New(), UserID: user, Type: domain.NotificationTicketConfirmed, Title: "Ticket Confirmed", Read: true},
		{ID: uuid.New(), UserID: user, Type: domain.NotificationSystem, Title: "Welcome"},
		{ID: uuid.New(), UserID: uuid.New(), Type: domain.NotificationSystem, Title: "Someone else"},
	}
	store := newFakeNotifications(ns...)
	svc := NewNotificationService(store, observability.NewDiscardLogger())
	svc.now = func() time.Time { return time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store, user, ns
}

func TestNotificationService_ListAndCount(t *testing.T) {
	svc, _, user, _ := newNotificationFixture()
	ctx := context.Background()

	all, err := svc.List(ctx, user, domain.NotificationFilter{Read: domain.ReadAll})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	unread, err := svc.List(ctx, user, domain.NotificationFilter{Read: domain.UnreadOnly, Types: []domain.NotificationType{domain.NotificationSystem}})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Welcome", unread[0].Title)

	n, err := svc.UnreadCount(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNotificationService_MarkReadIsIdempotent(t *testing.T) {
	svc, _, user, ns := newNotificationFixture()
	ctx := context.Background()

	first, err := svc.MarkRead(ctx, user, ns[0].ID)
	require.NoError(t, err)
	assert.True(t, first.Read)
	assert.Equal(t, ns[0].Message, first.Message)
	assert.Equal(t, ns[0].Type, first.Type)

	second, err := svc.MarkRead(ctx, user, ns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = svc.MarkRead(ctx, uuid.New(), ns[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotificationService_MarkAllReadAndDelete(t *testing.T) {
	svc, _, user, ns := newNotificationFixture()
	ctx := context.Background()

	n, err := svc.MarkAllRead(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = svc.MarkAllRead(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, svc.Delete(ctx, user, ns[1].ID))
	assert.ErrorIs(t, svc.Delete(ctx, user, ns[1].ID), domain.ErrNotFound)

	left, err := svc.List(ctx, user, domain.NotificationFilter{})
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestNotificationService_NotifyDedupes(t *testing.T) {
	svc, store, user, _ := newNotificationFixture()
	ctx := context.Background()
	n := domain.Notification{UserID: user, Type: domain.NotificationCheckIn, Title: "Checked In"}

	created, err := svc.Notify(ctx, n, "msg:1")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = svc.Notify(ctx, n, "msg:1")
	require.NoError(t, err)
	assert.False(t, created)

	last := store.items[len(store.items)-1]
	assert.NotEqual(t, uuid.Nil, last.ID)
	assert.Equal(t, svc.now(), last.Timestamp)
	assert.False(t, last.Read)
}

func TestNotificationService_NotifyValidates(t *testing.T) {
	svc, _, user, _ := newNotificationFixture()
	ctx := context.Background()

	cases := map[string]domain.Notification{
		"no user":      {Type: domain.NotificationSystem, Title: "x"},
		"unknown type": {UserID: user, Type: "price_drop", Title: "x"},
		"no title":     {UserID: user, Type: domain.NotificationSystem},
	}
	for name, n := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Notify(ctx, n, "")
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
