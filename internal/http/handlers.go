package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/app"
	"github.com/robertarktes/eventhub/internal/auth"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
)

type TicketService interface {
	MyTickets(ctx context.Context, userID uuid.UUID, f domain.TicketFilter) ([]domain.Ticket, error)
	Counts(ctx context.Context, userID uuid.UUID) (domain.TicketTabCounts, error)
	Cancel(ctx context.Context, userID, ticketID uuid.UUID) (domain.Ticket, error)
	Stats(ctx context.Context, userID uuid.UUID) (domain.UserStats, error)
}

type AttendeeService interface {
	List(ctx context.Context, actor auth.Principal, eventID uuid.UUID, f domain.AttendeeFilter) (app.AttendeeList, error)
	CheckIn(ctx context.Context, actor auth.Principal, eventID, attendeeID uuid.UUID) (domain.Attendee, error)
	Cancel(ctx context.Context, actor auth.Principal, eventID, attendeeID uuid.UUID) (domain.Attendee, error)
	Analytics(ctx context.Context, actor auth.Principal, eventID uuid.UUID) (domain.EventAnalytics, error)
}

type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID, f domain.NotificationFilter) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (domain.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type UserService interface {
	Login(ctx context.Context, email, password string) (app.LoginResult, error)
	Me(ctx context.Context, userID uuid.UUID) (domain.User, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, filename, contentType string, r io.Reader) (domain.User, error)
	OpenAvatar(ctx context.Context, fileID string) (io.ReadCloser, string, error)
}

type EventService interface {
	List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Event, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Tickets       TicketService
	Attendees     AttendeeService
	Notifications NotificationService
	Users         UserService
	Events        EventService
	// Readiness is checked by /v1/readyz, keyed by dependency name.
	Readiness map[string]Pinger
}

type Handlers struct {
	tickets        TicketService
	attendees      AttendeeService
	notifications  NotificationService
	users          UserService
	events         EventService
	readiness      map[string]Pinger
	maxAvatarBytes int64
	logger         observability.Logger
}

func NewHandlers(s Services, maxAvatarBytes int64, logger observability.Logger) *Handlers {
	return &Handlers{
		tickets:        s.Tickets,
		attendees:      s.Attendees,
		notifications:  s.Notifications,
		users:          s.Users,
		events:         s.Events,
		readiness:      s.Readiness,
		maxAvatarBytes: maxAvatarBytes,
		logger:         logger,
	}
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errors.Wrapf(domain.ErrInvalidInput, "invalid %s", name)
	}
	return id, nil
}

// principal is only called behind JWTMiddleware.
func principal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Me(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handlers) MyTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tickets, err := h.tickets.MyTickets(r.Context(), principal(r).UserID, domain.TicketFilter{
		Status:   q.Get("status"),
		Search:   q.Get("search"),
		Location: q.Get("location"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (h *Handlers) TicketCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.tickets.Counts(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *Handlers) CancelTicket(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ticket, err := h.tickets.Cancel(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (h *Handlers) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tickets.Stats(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

func (h *Handlers) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarBytes+64<<10)
	if err := r.ParseMultipartForm(h.maxAvatarBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || r.ContentLength > h.maxAvatarBytes+64<<10 {
			writeError(w, http.StatusRequestEntityTooLarge, "avatar exceeds maximum size")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()
	if header.Size > h.maxAvatarBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "avatar exceeds maximum size")
		return
	}

	// The stored type comes from the bytes, never from the declared part header.
	sniff := make([]byte, 512)
	n, _ := io.ReadFull(file, sniff)
	contentType := http.DetectContentType(sniff[:n])
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "avatar must be an image")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.UploadAvatar(r.Context(), principal(r).UserID, header.Filename, contentType, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"avatar": user.Avatar, "user": user})
}

func (h *Handlers) GetAvatar(w http.ResponseWriter, r *http.Request) {
	rc, contentType, err := h.users.OpenAvatar(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		observability.LoggerFrom(r.Context(), h.logger).WithError(err).Warn("avatar stream interrupted")
	}
}

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.events.List(r.Context(), domain.EventFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Location: q.Get("location"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *Handlers) ListAttendees(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	list, err := h.attendees.List(r.Context(), principal(r), eventID, domain.AttendeeFilter{
		Search:     q.Get("search"),
		Status:     q.Get("status"),
		TicketType: q.Get("ticketType"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) CheckInAttendee(w http.ResponseWriter, r *http.Request) {
	h.attendeeTransition(w, r, h.attendees.CheckIn)
}

func (h *Handlers) CancelAttendee(w http.ResponseWriter, r *http.Request) {
	h.attendeeTransition(w, r, h.attendees.Cancel)
}

func (h *Handlers) attendeeTransition(w http.ResponseWriter, r *http.Request, fn func(context.Context, auth.Principal, uuid.UUID, uuid.UUID) (domain.Attendee, error)) {
	eventID, err := uuidParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	attendeeID, err := uuidParam(r, "attendeeID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := fn(r.Context(), principal(r), eventID, attendeeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) EventAnalytics(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.attendees.Analytics(r.Context(), principal(r), eventID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// notificationFilter accepts type both repeated and comma separated.
func notificationFilter(r *http.Request) (domain.NotificationFilter, error) {
	q := r.URL.Query()
	read, err := domain.ParseReadState(q.Get("read"))
	if err != nil {
		return domain.NotificationFilter{}, err
	}
	f := domain.NotificationFilter{Read: read}
	for _, raw := range q["type"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			nt, err := domain.ParseNotificationType(part)
			if err != nil {
				return domain.NotificationFilter{}, err
			}
			f.Types = append(f.Types, nt)
		}
	}
	return f, nil
}

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	f, err := notificationFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ns, err := h.notifications.List(r.Context(), principal(r).UserID, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

func (h *Handlers) UnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.UnreadCount(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.notifications.MarkRead(r.Context(), principal(r).UserID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handlers) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkAllRead(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (h *Handlers) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.notifications.Delete(r.Context(), principal(r).UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	for name, p := range h.readiness {
		if err := p.Ping(r.Context()); err != nil {
			observability.LoggerFrom(r.Context(), h.logger).WithError(err).WithField("dependency", name).Warn("not ready")
			writeError(w, http.StatusServiceUnavailable, name+" unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
