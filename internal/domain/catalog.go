package domain

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleUser      Role = "user"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleOrganizer, RoleUser:
		return r, nil
	case "":
		return RoleUser, nil
	}
	return "", errors.Wrapf(ErrInvalidInput, "unknown role %q", s)
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type TicketType struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Event struct {
	ID            uuid.UUID    `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Date          time.Time    `json:"date"`
	Time          string       `json:"time"`
	Location      string       `json:"location"`
	Category      string       `json:"category"`
	TicketTypes   []TicketType `json:"ticketTypes"`
	OrganizerID   uuid.UUID    `json:"organizerId"`
	AttendeeCount int          `json:"attendeeCount"`
	Published     bool         `json:"published"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Capacity is the sum of all ticket type quantities.
func (e Event) Capacity() int {
	c := 0
	for _, tt := range e.TicketTypes {
		c += tt.Quantity
	}
	return c
}

// ManagedBy reports whether the caller may manage the event.
func (e Event) ManagedBy(userID uuid.UUID, role Role) bool {
	if role == RoleAdmin {
		return true
	}
	return role == RoleOrganizer && e.OrganizerID == userID
}

type EventFilter struct {
	Search   string
	Category string
	Location string
}
