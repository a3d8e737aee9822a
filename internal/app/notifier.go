package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
)

// EventHandler turns domain events from the broker into user notifications.
type EventHandler struct {
	notifier Notifier
	logger   observability.Logger
}

func NewEventHandler(notifier Notifier, logger observability.Logger) *EventHandler {
	return &EventHandler{notifier: notifier, logger: logger}
}

// Handle is safe to call more than once per message: notifications are
// deduplicated on the message id. Malformed payloads are reported as
// ErrInvalidInput so the caller can drop them instead of requeueing.
func (h *EventHandler) Handle(ctx context.Context, routingKey, messageID string, body []byte) error {
	var n domain.Notification
	switch routingKey {
	case EventTicketCanceled:
		var t domain.Ticket
		if err := json.Unmarshal(body, &t); err != nil {
			return errors.Wrapf(domain.ErrInvalidInput, "decode %s: %v", routingKey, err)
		}
		eventID, ticketID := t.EventID, t.ID
		n = domain.Notification{
			UserID:   t.UserID,
			Type:     domain.NotificationTicketCanceled,
			Title:    "Ticket Canceled",
			Message:  fmt.Sprintf("Your %s ticket for %s has been canceled.", t.TicketType, t.EventTitle),
			EventID:  &eventID,
			TicketID: &ticketID,
		}
	case EventAttendeeCheckedIn, EventAttendeeCancelled:
		var a domain.Attendee
		if err := json.Unmarshal(body, &a); err != nil {
			return errors.Wrapf(domain.ErrInvalidInput, "decode %s: %v", routingKey, err)
		}
		if a.UserID == uuid.Nil {
			// Guest registrations have no account to notify.
			return nil
		}
		eventID := a.EventID
		n = domain.Notification{UserID: a.UserID, EventID: &eventID}
		if routingKey == EventAttendeeCheckedIn {
			n.Type = domain.NotificationCheckIn
			n.Title = "Checked In"
			n.Message = fmt.Sprintf("%s, you're checked in. Enjoy the event!", a.Name)
		} else {
			n.Type = domain.NotificationTicketCanceled
			n.Title = "Registration Cancelled"
			n.Message = fmt.Sprintf("Your %s registration has been cancelled by the organizer.", a.TicketType)
		}
	default:
		h.logger.WithField("routing_key", routingKey).Debug("ignoring event")
		return nil
	}

	created, err := h.notifier.Notify(ctx, n, "msg:"+messageID)
	if err != nil {
		return err
	}
	h.logger.WithField("routing_key", routingKey).WithField("created", created).Debug("event handled")
	return nil
}
