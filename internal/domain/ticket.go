package domain

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketUpcoming TicketStatus = "upcoming"
	TicketPast     TicketStatus = "past"
	TicketCanceled TicketStatus = "canceled"
	TicketUsed     TicketStatus = "used"
)

func ParseTicketStatus(s string) (TicketStatus, error) {
	switch st := TicketStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case TicketUpcoming, TicketPast, TicketCanceled, TicketUsed:
		return st, nil
	}
	return "", errors.Wrapf(ErrInvalidInput, "unknown ticket status %q", s)
}

type Ticket struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"userId"`
	EventID      uuid.UUID    `json:"eventId"`
	EventTitle   string       `json:"eventTitle"`
	EventDate    time.Time    `json:"eventDate"`
	EventTime    string       `json:"eventTime"`
	Location     string       `json:"location"`
	TicketType   string       `json:"ticketType"`
	Price        float64      `json:"price"`
	PurchaseDate time.Time    `json:"purchaseDate"`
	Status       TicketStatus `json:"status"`
}

// TicketFilter selects a tab and narrows it by free text. Zero values match
// everything.
type TicketFilter struct {
	Status   string
	Search   string
	Location string
}

func (f TicketFilter) Validate() error {
	if anyValue(f.Status) {
		return nil
	}
	_, err := ParseTicketStatus(f.Status)
	return err
}

func (f TicketFilter) Matches(t Ticket) bool {
	if !anyValue(f.Status) && !strings.EqualFold(strings.TrimSpace(f.Status), string(t.Status)) {
		return false
	}
	return containsFold(t.EventTitle, f.Search) && containsFold(t.Location, f.Location)
}

// FilterTickets returns the tickets matching every active predicate of f, in
// input order. The input slice is left untouched.
func FilterTickets(tickets []Ticket, f TicketFilter) []Ticket {
	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

type TicketTabCounts struct {
	All      int `json:"all"`
	Upcoming int `json:"upcoming"`
	Past     int `json:"past"`
	Canceled int `json:"canceled"`
}

func CountTicketsByTab(tickets []Ticket) TicketTabCounts {
	c := TicketTabCounts{All: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case TicketUpcoming:
			c.Upcoming++
		case TicketPast:
			c.Past++
		case TicketCanceled:
			c.Canceled++
		}
	}
	return c
}

// CancelTicket moves an upcoming ticket to canceled.
func CancelTicket(t *Ticket) error {
	if t.Status != TicketUpcoming {
		return errors.Wrapf(ErrInvalidTransition, "cannot cancel %s ticket", t.Status)
	}
	t.Status = TicketCanceled
	return nil
}

// MarkPast moves an upcoming ticket whose event has started before now to
// past. It reports whether the ticket changed.
func MarkPast(t *Ticket, now time.Time) bool {
	if t.Status != TicketUpcoming || !t.EventDate.Before(now) {
		return false
	}
	t.Status = TicketPast
	return true
}

type UserStats struct {
	UpcomingEvents  int     `json:"upcomingEvents"`
	PastEvents      int     `json:"pastEvents"`
	CanceledTickets int     `json:"canceledTickets"`
	TotalTickets    int     `json:"totalTickets"`
	TotalSpent      float64 `json:"totalSpent"`
}

// ComputeUserStats aggregates a user's tickets. Spend excludes canceled
// tickets; used tickets count as past events.
func ComputeUserStats(tickets []Ticket) UserStats {
	var s UserStats
	upcoming := map[uuid.UUID]struct{}{}
	past := map[uuid.UUID]struct{}{}
	for _, t := range tickets {
		s.TotalTickets++
		switch t.Status {
		case TicketUpcoming:
			upcoming[t.EventID] = struct{}{}
		case TicketPast, TicketUsed:
			past[t.EventID] = struct{}{}
		case TicketCanceled:
			s.CanceledTickets++
			continue
		}
		s.TotalSpent += t.Price
	}
	s.UpcomingEvents = len(upcoming)
	s.PastEvents = len(past)
	return s
}
