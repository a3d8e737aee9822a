package domain

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type AttendeeStatus string

const (
	AttendeeConfirmed AttendeeStatus = "confirmed"
	AttendeeCancelled AttendeeStatus = "cancelled"
	AttendeePending   AttendeeStatus = "pending"
)

func ParseAttendeeStatus(s string) (AttendeeStatus, error) {
	switch st := AttendeeStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case AttendeeConfirmed, AttendeeCancelled, AttendeePending:
		return st, nil
	}
	return "", errors.Wrapf(ErrInvalidInput, "unknown attendee status %q", s)
}

type Attendee struct {
	ID            uuid.UUID      `json:"id"`
	EventID       uuid.UUID      `json:"eventId"`
	UserID        uuid.UUID      `json:"userId"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	TicketType    string         `json:"ticketType"`
	Status        AttendeeStatus `json:"status"`
	CheckInStatus bool           `json:"checkInStatus"`
	CheckInTime   *time.Time     `json:"checkInTime,omitempty"`
}

// CheckIn records the attendee as present at now. Cancelled attendees cannot
// check in and a second check-in is rejected.
func (a *Attendee) CheckIn(now time.Time) error {
	if a.Status != AttendeeConfirmed && a.Status != AttendeePending {
		return errors.Wrapf(ErrInvalidTransition, "cannot check in %s attendee", a.Status)
	}
	if a.CheckInStatus {
		return ErrAlreadyCheckedIn
	}
	a.CheckInStatus = true
	a.CheckInTime = &now
	return nil
}

// Cancel moves a confirmed attendee to cancelled. Check-in state is left as
// is.
func (a *Attendee) Cancel() error {
	if a.Status != AttendeeConfirmed {
		return errors.Wrapf(ErrInvalidTransition, "cannot cancel %s attendee", a.Status)
	}
	a.Status = AttendeeCancelled
	return nil
}

type AttendeeFilter struct {
	Search     string
	Status     string
	TicketType string
}

func (f AttendeeFilter) Validate() error {
	if anyValue(f.Status) {
		return nil
	}
	_, err := ParseAttendeeStatus(f.Status)
	return err
}

func (f AttendeeFilter) Matches(a Attendee) bool {
	if !containsFold(a.Name, f.Search) && !containsFold(a.Email, f.Search) {
		return false
	}
	if !anyValue(f.Status) && !strings.EqualFold(strings.TrimSpace(f.Status), string(a.Status)) {
		return false
	}
	if !anyValue(f.TicketType) && !strings.EqualFold(strings.TrimSpace(f.TicketType), a.TicketType) {
		return false
	}
	return true
}

func FilterAttendees(attendees []Attendee, f AttendeeFilter) []Attendee {
	out := make([]Attendee, 0, len(attendees))
	for _, a := range attendees {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}

type AttendeeSummary struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Pending   int `json:"pending"`
	Cancelled int `json:"cancelled"`
	CheckedIn int `json:"checkedIn"`
}

func SummarizeAttendees(attendees []Attendee) AttendeeSummary {
	s := AttendeeSummary{Total: len(attendees)}
	for _, a := range attendees {
		switch a.Status {
		case AttendeeConfirmed:
			s.Confirmed++
		case AttendeePending:
			s.Pending++
		case AttendeeCancelled:
			s.Cancelled++
		}
		if a.CheckInStatus {
			s.CheckedIn++
		}
	}
	return s
}
