package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/auth"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
	"golang.org/x/sync/errgroup"
)

type EventReader interface {
	GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error)
}

type AttendeeStore interface {
	ListAttendees(ctx context.Context, eventID uuid.UUID) ([]domain.Attendee, error)
	UpdateAttendee(ctx context.Context, eventID, attendeeID uuid.UUID, eventType string, mutate func(*domain.Attendee) error) (domain.Attendee, error)
}

type AttendeeList struct {
	Attendees []domain.Attendee      `json:"attendees"`
	Summary   domain.AttendeeSummary `json:"summary"`
}

type AttendeeService struct {
	events    EventReader
	attendees AttendeeStore
	audit     Auditor
	now       func() time.Time
	logger    observability.Logger
}

func NewAttendeeService(events EventReader, attendees AttendeeStore, audit Auditor, logger observability.Logger) *AttendeeService {
	return &AttendeeService{events: events, attendees: attendees, audit: audit, now: time.Now, logger: logger}
}

func (s *AttendeeService) authorize(ctx context.Context, actor auth.Principal, eventID uuid.UUID) error {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.ManagedBy(actor.UserID, actor.Role) {
		return domain.ErrForbidden
	}
	return nil
}

// List returns the attendees matching f. The summary always covers the whole
// event.
func (s *AttendeeService) List(ctx context.Context, actor auth.Principal, eventID uuid.UUID, f domain.AttendeeFilter) (AttendeeList, error) {
	if err := f.Validate(); err != nil {
		return AttendeeList{}, err
	}
	if err := s.authorize(ctx, actor, eventID); err != nil {
		return AttendeeList{}, err
	}
	all, err := s.attendees.ListAttendees(ctx, eventID)
	if err != nil {
		return AttendeeList{}, err
	}
	return AttendeeList{
		Attendees: domain.FilterAttendees(all, f),
		Summary:   domain.SummarizeAttendees(all),
	}, nil
}

func (s *AttendeeService) CheckIn(ctx context.Context, actor auth.Principal, eventID, attendeeID uuid.UUID) (domain.Attendee, error) {
	a, err := s.transition(ctx, actor, eventID, attendeeID, EventAttendeeCheckedIn, func(a *domain.Attendee) error {
		return a.CheckIn(s.now().UTC())
	})
	if err == nil {
		observability.AttendeeCheckIns.Inc()
	}
	return a, err
}

func (s *AttendeeService) Cancel(ctx context.Context, actor auth.Principal, eventID, attendeeID uuid.UUID) (domain.Attendee, error) {
	return s.transition(ctx, actor, eventID, attendeeID, EventAttendeeCancelled, func(a *domain.Attendee) error {
		return a.Cancel()
	})
}

func (s *AttendeeService) transition(ctx context.Context, actor auth.Principal, eventID, attendeeID uuid.UUID, eventType string, mutate func(*domain.Attendee) error) (domain.Attendee, error) {
	if err := s.authorize(ctx, actor, eventID); err != nil {
		return domain.Attendee{}, err
	}
	var attendee domain.Attendee
	err := retrySerialization(ctx, 3, func() error {
		var err error
		attendee, err = s.attendees.UpdateAttendee(ctx, eventID, attendeeID, eventType, mutate)
		return err
	})
	if err != nil {
		return domain.Attendee{}, err
	}
	if s.audit != nil {
		if err := s.audit.LogAttendee(ctx, eventType, actor.UserID, attendee); err != nil {
			s.logger.WithError(err).WithField("attendee_id", attendee.ID).Warn("failed to audit attendee change")
		}
	}
	return attendee, nil
}

// Analytics loads the event and its attendees concurrently and derives the
// dashboard figures.
func (s *AttendeeService) Analytics(ctx context.Context, actor auth.Principal, eventID uuid.UUID) (domain.EventAnalytics, error) {
	var (
		event     domain.Event
		attendees []domain.Attendee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		event, err = s.events.GetEvent(gctx, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		attendees, err = s.attendees.ListAttendees(gctx, eventID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.EventAnalytics{}, err
	}
	if !event.ManagedBy(actor.UserID, actor.Role) {
		return domain.EventAnalytics{}, domain.ErrForbidden
	}
	return domain.BuildEventAnalytics(event, attendees), nil
}
