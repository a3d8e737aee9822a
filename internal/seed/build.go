package seed

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/auth"
	"github.com/robertarktes/eventhub/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Dataset is a fixture with every reference resolved, ready to insert.
type Dataset struct {
	Users         []domain.User
	Events        []domain.Event
	Tickets       []domain.Ticket
	Attendees     []domain.Attendee
	Notifications []domain.Notification
}

var seedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://eventhub.local/seed"))

// stableID keeps IDs identical across reseeds so links and tokens survive.
func stableID(kind string, parts ...string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+strings.Join(parts, "|")))
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	return t.UTC(), err
}

// eventStart combines the date with a clock time such as "6:30 PM" when one
// is given.
func eventStart(date, clock string) (time.Time, error) {
	if clock != "" {
		if t, err := time.Parse("2006-01-02 3:04 PM", date+" "+strings.ToUpper(clock)); err == nil {
			return t.UTC(), nil
		}
	}
	return parseDay(date)
}

// Build validates f, hashes passwords and resolves every email and title
// reference. now stamps created times and check-ins.
func Build(ctx context.Context, f Fixture, now time.Time) (Dataset, error) {
	var ds Dataset

	users := make(map[string]domain.User, len(f.Users))
	ds.Users = make([]domain.User, len(f.Users))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, uf := range f.Users {
		email := strings.ToLower(strings.TrimSpace(uf.Email))
		if email == "" {
			return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "user %d has no email", i)
		}
		if _, dup := users[email]; dup {
			return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "duplicate user %s", email)
		}
		role, err := domain.ParseRole(uf.Role)
		if err != nil {
			return Dataset{}, errors.Wrapf(err, "user %s", email)
		}
		u := domain.User{ID: stableID("user", email), Name: uf.Name, Email: email, Role: role, Avatar: uf.Avatar, CreatedAt: now}
		users[email] = u
		ds.Users[i] = u

		i, password := i, uf.Password
		g.Go(func() error {
			hash, err := auth.HashPassword(password)
			if err != nil {
				return errors.Wrapf(err, "hash password for %s", email)
			}
			ds.Users[i].PasswordHash = hash
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}
	for _, u := range ds.Users {
		users[u.Email] = u
	}

	events := make(map[string]*domain.Event, len(f.Events))
	ds.Events = make([]domain.Event, 0, len(f.Events))
	for _, ef := range f.Events {
		organizer, ok := users[strings.ToLower(ef.Organizer)]
		if !ok {
			return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "event %q: unknown organizer %s", ef.Title, ef.Organizer)
		}
		start, err := eventStart(ef.Date, ef.Time)
		if err != nil {
			return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "event %q: bad date %q", ef.Title, ef.Date)
		}
		e := domain.Event{
			ID:            stableID("event", ef.Title),
			Title:         ef.Title,
			Description:   ef.Description,
			Date:          start,
			Time:          ef.Time,
			Location:      ef.Location,
			Category:      ef.Category,
			OrganizerID:   organizer.ID,
			AttendeeCount: ef.AttendeeCount,
			Published:     ef.Published,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		for _, tt := range ef.TicketTypes {
			e.TicketTypes = append(e.TicketTypes, domain.TicketType{Name: tt.Name, Price: tt.Price, Quantity: tt.Quantity})
		}
		ds.Events = append(ds.Events, e)
	}
	for i := range ds.Events {
		if _, dup := events[ds.Events[i].Title]; dup {
			return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "duplicate event %q", ds.Events[i].Title)
		}
		events[ds.Events[i].Title] = &ds.Events[i]
	}

	for i, tf := range f.Tickets {
		user, ok := users[strings.ToLower(tf.User)]
		if !ok {
			return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "ticket %d: unknown user %s", i, tf.User)
		}
		event, ok := events[tf.Event]
		if !ok {
			return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "ticket %d: unknown event %q", i, tf.Event)
		}
		status, err := domain.ParseTicketStatus(tf.Status)
		if err != nil {
			return Dataset{}, errors.Wrapf(err, "ticket %d", i)
		}
		price, found := priceOf(*event, tf.TicketType)
		if tf.Price != nil {
			price, found = *tf.Price, true
		}
		if !found {
			return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "ticket %d: event %q has no ticket type %q", i, tf.Event, tf.TicketType)
		}
		purchased := now
		if tf.PurchaseDate != "" {
			if purchased, err = parseDay(tf.PurchaseDate); err != nil {
				return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "ticket %d: bad purchase date", i)
			}
		}
		ds.Tickets = append(ds.Tickets, domain.Ticket{
			ID:           stableID("ticket", user.Email, event.Title, tf.TicketType, tf.PurchaseDate),
			UserID:       user.ID,
			EventID:      event.ID,
			EventTitle:   event.Title,
			EventDate:    event.Date,
			EventTime:    event.Time,
			Location:     event.Location,
			TicketType:   tf.TicketType,
			Price:        price,
			PurchaseDate: purchased,
			Status:       status,
		})
	}

	counted := map[uuid.UUID]int{}
	for i, af := range f.Attendees {
		event, ok := events[af.Event]
		if !ok {
			return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "attendee %d: unknown event %q", i, af.Event)
		}
		status, err := domain.ParseAttendeeStatus(af.Status)
		if err != nil {
			return Dataset{}, errors.Wrapf(err, "attendee %d", i)
		}
		a := domain.Attendee{EventID: event.ID, Name: af.Name, Email: strings.ToLower(af.Email), TicketType: af.TicketType, Status: status}
		if af.User != "" {
			user, ok := users[strings.ToLower(af.User)]
			if !ok {
				return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "attendee %d: unknown user %s", i, af.User)
			}
			a.UserID, a.Name, a.Email = user.ID, user.Name, user.Email
		}
		if a.Email == "" {
			return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "attendee %d has no email", i)
		}
		a.ID = stableID("attendee", event.Title, a.Email)
		if af.CheckedIn {
			at := event.Date
			a.CheckInStatus, a.CheckInTime = true, &at
		}
		if status != domain.AttendeeCancelled {
			counted[event.ID]++
		}
		ds.Attendees = append(ds.Attendees, a)
	}
	for i := range ds.Events {
		if ds.Events[i].AttendeeCount == 0 {
			ds.Events[i].AttendeeCount = counted[ds.Events[i].ID]
		}
	}

	for i, nf := range f.Notifications {
		user, ok := users[strings.ToLower(nf.User)]
		if !ok {
			return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "notification %d: unknown user %s", i, nf.User)
		}
		nt, err := domain.ParseNotificationType(nf.Type)
		if err != nil {
			return Dataset{}, errors.Wrapf(err, "notification %d", i)
		}
		ts := now
		if nf.Timestamp != "" {
			if ts, err = time.Parse(time.RFC3339, nf.Timestamp); err != nil {
				return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "notification %d: bad timestamp", i)
			}
		}
		n := domain.Notification{
			ID:        stableID("notification", user.Email, nf.Title, nf.Timestamp),
			UserID:    user.ID,
			Type:      nt,
			Title:     nf.Title,
			Message:   nf.Message,
			Timestamp: ts.UTC(),
			Read:      nf.Read,
		}
		if nf.Event != "" {
			event, ok := events[nf.Event]
			if !ok {
				return Dataset{}, errors.Wrapf(domain.ErrInvalidInput, "notification %d: unknown event %q", i, nf.Event)
			}
			id := event.ID
			n.EventID = &id
		}
		ds.Notifications = append(ds.Notifications, n)
	}
	return ds, nil
}

func priceOf(e domain.Event, ticketType string) (float64, bool) {
	for _, tt := range e.TicketTypes {
		if strings.EqualFold(tt.Name, ticketType) {
			return tt.Price, true
		}
	}
	return 0, false
}
