package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/eventhub/internal/observability"
)

type RouterDeps struct {
	Tokens      TokenParser
	RateLimiter RateLimiter
	Limits      RateLimits
	Idempotency IdempotencyStore
}

func SetupRouter(h *Handlers, logger observability.Logger, deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", h.Healthz)
		r.Get("/readyz", h.Readyz)

		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(deps.RateLimiter, deps.Limits))
			r.Post("/auth/login", h.Login)
			r.Get("/events", h.ListEvents)
			r.Get("/events/{id}", h.GetEvent)
			r.Get("/users/avatar/{fileID}", h.GetAvatar)
		})

		r.Group(func(r chi.Router) {
			r.Use(JWTMiddleware(deps.Tokens))
			r.Use(RateLimitMiddleware(deps.RateLimiter, deps.Limits))
			r.Use(IdempotencyMiddleware(deps.Idempotency))

			r.Get("/users/me", h.Me)
			r.Get("/users/stats", h.UserStats)
			r.Post("/users/avatar", h.UploadAvatar)

			r.Get("/tickets/my-tickets", h.MyTickets)
			r.Get("/tickets/my-tickets/counts", h.TicketCounts)
			r.Post("/tickets/{id}/cancel", h.CancelTicket)

			r.Get("/events/{id}/attendees", h.ListAttendees)
			r.Post("/events/{id}/attendees/{attendeeID}/check-in", h.CheckInAttendee)
			r.Post("/events/{id}/attendees/{attendeeID}/cancel", h.CancelAttendee)
			r.Get("/events/{id}/analytics", h.EventAnalytics)

			r.Get("/notifications", h.ListNotifications)
			r.Get("/notifications/unread-count", h.UnreadNotificationCount)
			r.Post("/notifications/read-all", h.MarkAllNotificationsRead)
			r.Post("/notifications/{id}/read", h.MarkNotificationRead)
			r.Delete("/notifications/{id}", h.DeleteNotification)
		})
	})

	return r
}
