package app

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
)

type NotificationStore interface {
	ListNotifications(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	UpdateNotification(ctx context.Context, userID, id uuid.UUID, mutate func(*domain.Notification) error) (domain.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int, error)
	DeleteNotification(ctx context.Context, userID, id uuid.UUID) error
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error)
	CreateNotification(ctx context.Context, n domain.Notification, dedupeKey string) (bool, error)
}

type NotificationService struct {
	store  NotificationStore
	now    func() time.Time
	logger observability.Logger
}

func NewNotificationService(store NotificationStore, logger observability.Logger) *NotificationService {
	return &NotificationService{store: store, now: time.Now, logger: logger}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, f domain.NotificationFilter) ([]domain.Notification, error) {
	ns, err := s.store.ListNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.FilterNotifications(ns, f), nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountUnreadNotifications(ctx, userID)
}

// MarkRead is idempotent; marking a read notification again is not an error.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) (domain.Notification, error) {
	return s.store.UpdateNotification(ctx, userID, id, func(n *domain.Notification) error {
		n.MarkRead()
		return nil
	})
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.DeleteNotification(ctx, userID, id)
}

// Notify stores n unless a notification with the same dedupe key already
// exists for the user. It reports whether a row was created.
func (s *NotificationService) Notify(ctx context.Context, n domain.Notification, dedupeKey string) (bool, error) {
	if n.UserID == uuid.Nil {
		return false, errors.Wrap(domain.ErrInvalidInput, "notification needs a user")
	}
	if _, err := domain.ParseNotificationType(string(n.Type)); err != nil {
		return false, err
	}
	if strings.TrimSpace(n.Title) == "" {
		return false, errors.Wrap(domain.ErrInvalidInput, "notification needs a title")
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = s.now().UTC()
	}
	if dedupeKey == "" {
		dedupeKey = n.ID.String()
	}
	created, err := s.store.CreateNotification(ctx, n, dedupeKey)
	if err != nil {
		return false, err
	}
	if created {
		observability.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	}
	return created, nil
}
