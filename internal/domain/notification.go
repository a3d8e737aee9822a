package domain

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationEventReminder   NotificationType = "event_reminder"
	NotificationTicketConfirmed NotificationType = "ticket_confirmed"
	NotificationTicketCanceled  NotificationType = "ticket_canceled"
	NotificationEventUpdated    NotificationType = "event_updated"
	NotificationEventCanceled   NotificationType = "event_canceled"
	NotificationCheckIn         NotificationType = "check_in"
	NotificationNewEvent        NotificationType = "new_event"
	NotificationSystem          NotificationType = "system"
)

var notificationTypes = []NotificationType{
	NotificationEventReminder,
	NotificationTicketConfirmed,
	NotificationTicketCanceled,
	NotificationEventUpdated,
	NotificationEventCanceled,
	NotificationCheckIn,
	NotificationNewEvent,
	NotificationSystem,
}

func ParseNotificationType(s string) (NotificationType, error) {
	nt := NotificationType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range notificationTypes {
		if nt == known {
			return nt, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidInput, "unknown notification type %q", s)
}

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
	EventID   *uuid.UUID       `json:"eventId,omitempty"`
	TicketID  *uuid.UUID       `json:"ticketId,omitempty"`
}

// MarkRead is one-way; it reports whether the notification was unread.
func (n *Notification) MarkRead() bool {
	if n.Read {
		return false
	}
	n.Read = true
	return true
}

type ReadState string

const (
	ReadAll    ReadState = "all"
	ReadOnly   ReadState = "read"
	UnreadOnly ReadState = "unread"
)

func ParseReadState(s string) (ReadState, error) {
	switch rs := ReadState(strings.ToLower(strings.TrimSpace(s))); rs {
	case "":
		return ReadAll, nil
	case ReadAll, ReadOnly, UnreadOnly:
		return rs, nil
	}
	return "", errors.Wrapf(ErrInvalidInput, "unknown read state %q", s)
}

type NotificationFilter struct {
	Read  ReadState
	Types []NotificationType
}

func (f NotificationFilter) Matches(n Notification) bool {
	switch f.Read {
	case ReadOnly:
		if !n.Read {
			return false
		}
	case UnreadOnly:
		if n.Read {
			return false
		}
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == n.Type {
			return true
		}
	}
	return false
}

func FilterNotifications(ns []Notification, f NotificationFilter) []Notification {
	out := make([]Notification, 0, len(ns))
	for _, n := range ns {
		if f.Matches(n) {
			out = append(out, n)
		}
	}
	return out
}

func UnreadCount(ns []Notification) int {
	c := 0
	for _, n := range ns {
		if !n.Read {
			c++
		}
	}
	return c
}
