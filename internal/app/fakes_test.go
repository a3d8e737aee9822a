package app

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/auth"
	"github.com/robertarktes/eventhub/internal/domain"
)

type fakeTickets struct {
	mu         sync.Mutex
	tickets    map[uuid.UUID]domain.Ticket
	updateErrs []error
	events     []string
}

func newFakeTickets(ts ...domain.Ticket) *fakeTickets {
	f := &fakeTickets{tickets: map[uuid.UUID]domain.Ticket{}}
	for _, t := range ts {
		f.tickets[t.ID] = t
	}
	return f
}

func (f *fakeTickets) ListTicketsByUser(_ context.Context, userID uuid.UUID) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, nil
}

func (f *fakeTickets) ListUpcomingTickets(_ context.Context, before time.Time) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.tickets {
		if t.Status == domain.TicketUpcoming && t.EventDate.Before(before) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, nil
}

func (f *fakeTickets) UpdateTicket(_ context.Context, id uuid.UUID, eventType string, mutate func(*domain.Ticket) error) (domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		return domain.Ticket{}, err
	}
	t, ok := f.tickets[id]
	if !ok {
		return domain.Ticket{}, domain.ErrNotFound
	}
	if err := mutate(&t); err != nil {
		return domain.Ticket{}, err
	}
	f.tickets[id] = t
	if eventType != "" {
		f.events = append(f.events, eventType)
	}
	return t, nil
}

type fakeCache struct {
	mu          sync.Mutex
	stats       map[uuid.UUID]domain.UserStats
	invalidated []uuid.UUID
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{stats: map[uuid.UUID]domain.UserStats{}}
}

func (c *fakeCache) GetStats(_ context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	s, ok := c.stats[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (c *fakeCache) SetStats(_ context.Context, userID uuid.UUID, stats domain.UserStats, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[userID] = stats
	return nil
}

func (c *fakeCache) InvalidateStats(_ context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stats, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *fakeAudit) LogTicket(_ context.Context, action string, _ domain.Ticket) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return nil
}

func (a *fakeAudit) LogAttendee(_ context.Context, action string, _ uuid.UUID, _ domain.Attendee) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return nil
}

type fakeEvents struct {
	events map[uuid.UUID]domain.Event
}

func (f *fakeEvents) GetEvent(_ context.Context, id uuid.UUID) (domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeEvents) ListPublished(_ context.Context, flt domain.EventFilter) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range f.events {
		if e.Published && (flt.Category == "" || e.Category == flt.Category) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAttendees struct {
	mu        sync.Mutex
	attendees []domain.Attendee
	events    []string
}

func (f *fakeAttendees) ListAttendees(_ context.Context, eventID uuid.UUID) ([]domain.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Attendee
	for _, a := range f.attendees {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttendees) UpdateAttendee(_ context.Context, eventID, attendeeID uuid.UUID, eventType string, mutate func(*domain.Attendee) error) (domain.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.attendees {
		if a.ID != attendeeID || a.EventID != eventID {
			continue
		}
		if err := mutate(&a); err != nil {
			return domain.Attendee{}, err
		}
		f.attendees[i] = a
		f.events = append(f.events, eventType)
		return a, nil
	}
	return domain.Attendee{}, domain.ErrNotFound
}

type fakeNotifications struct {
	mu     sync.Mutex
	items  []domain.Notification
	dedupe map[string]bool
}

func newFakeNotifications(ns ...domain.Notification) *fakeNotifications {
	return &fakeNotifications{items: ns, dedupe: map[string]bool{}}
}

func (f *fakeNotifications) ListNotifications(_ context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) UpdateNotification(_ context.Context, userID, id uuid.UUID, mutate func(*domain.Notification) error) (domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.items {
		if n.ID == id && n.UserID == userID {
			if err := mutate(&n); err != nil {
				return domain.Notification{}, err
			}
			f.items[i] = n
			return n, nil
		}
	}
	return domain.Notification{}, domain.ErrNotFound
}

func (f *fakeNotifications) MarkAllNotificationsRead(_ context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := 0
	for i := range f.items {
		if f.items[i].UserID == userID && f.items[i].MarkRead() {
			c++
		}
	}
	return c, nil
}

func (f *fakeNotifications) DeleteNotification(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.items {
		if n.ID == id && n.UserID == userID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeNotifications) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	ns, _ := f.ListNotifications(ctx, userID)
	return domain.UnreadCount(ns), nil
}

func (f *fakeNotifications) CreateNotification(_ context.Context, n domain.Notification, dedupeKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := n.UserID.String() + "/" + dedupeKey
	if f.dedupe[key] {
		return false, nil
	}
	f.dedupe[key] = true
	f.items = append(f.items, n)
	return true, nil
}

type fakeUsers struct {
	users map[uuid.UUID]domain.User
}

func (f *fakeUsers) GetUser(_ context.Context, id uuid.UUID) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (f *fakeUsers) UpdateAvatar(_ context.Context, id uuid.UUID, avatar string) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	u.Avatar = avatar
	f.users[id] = u
	return u, nil
}

type fakeAvatars struct {
	files map[string][]byte
	types map[string]string
}

func newFakeAvatars() *fakeAvatars {
	return &fakeAvatars{files: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeAvatars) SaveAvatar(_ context.Context, _ uuid.UUID, _, contentType string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	f.files[id] = b
	f.types[id] = contentType
	return id, nil
}

func (f *fakeAvatars) OpenAvatar(_ context.Context, id string) (io.ReadCloser, string, error) {
	b, ok := f.files[id]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), f.types[id], nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(p auth.Principal) (string, time.Time, error) {
	return "token-" + p.UserID.String(), time.Unix(0, 0), nil
}
