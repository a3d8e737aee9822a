// Package seed loads a YAML fixture of users, events and the ticketing state
// that hangs off them, and writes it to the stores.
package seed

import (
	_ "embed"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFixture []byte

type Fixture struct {
	Users         []UserFixture         `yaml:"users"`
	Events        []EventFixture        `yaml:"events"`
	Tickets       []TicketFixture       `yaml:"tickets"`
	Attendees     []AttendeeFixture     `yaml:"attendees"`
	Notifications []NotificationFixture `yaml:"notifications"`
}

type UserFixture struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Avatar   string `yaml:"avatar"`
}

type TicketTypeFixture struct {
	Name     string  `yaml:"name"`
	Price    float64 `yaml:"price"`
	Quantity int     `yaml:"quantity"`
}

type EventFixture struct {
	Title         string              `yaml:"title"`
	Description   string              `yaml:"description"`
	Date          string              `yaml:"date"`
	Time          string              `yaml:"time"`
	Location      string              `yaml:"location"`
	Category      string              `yaml:"category"`
	Organizer     string              `yaml:"organizer"`
	Published     bool                `yaml:"published"`
	AttendeeCount int                 `yaml:"attendeeCount"`
	TicketTypes   []TicketTypeFixture `yaml:"ticketTypes"`
}

type TicketFixture struct {
	User         string   `yaml:"user"`
	Event        string   `yaml:"event"`
	TicketType   string   `yaml:"ticketType"`
	Price        *float64 `yaml:"price"`
	PurchaseDate string   `yaml:"purchaseDate"`
	Status       string   `yaml:"status"`
}

// AttendeeFixture names either a seeded user or a guest by name and email.
type AttendeeFixture struct {
	Event      string `yaml:"event"`
	User       string `yaml:"user"`
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	TicketType string `yaml:"ticketType"`
	Status     string `yaml:"status"`
	CheckedIn  bool   `yaml:"checkedIn"`
}

type NotificationFixture struct {
	User      string `yaml:"user"`
	Type      string `yaml:"type"`
	Title     string `yaml:"title"`
	Message   string `yaml:"message"`
	Event     string `yaml:"event"`
	Timestamp string `yaml:"timestamp"`
	Read      bool   `yaml:"read"`
}

// Load reads the fixture at path, or the embedded default when path is empty.
func Load(path string) (Fixture, error) {
	data := defaultFixture
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Fixture{}, errors.Wrapf(err, "read fixture %s", path)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, errors.Wrap(err, "parse fixture")
	}
	return f, nil
}
