package http

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robertarktes/eventhub/internal/auth"
	"github.com/robertarktes/eventhub/internal/idempotency"
	"github.com/robertarktes/eventhub/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelhttp "go.opentelemetry.io/otel/propagation"
)

type TokenParser interface {
	Parse(raw string) (auth.Principal, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, rate int, period time.Duration) bool
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*idempotency.Response, error)
	Set(ctx context.Context, key string, resp idempotency.Response) error
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type RateLimits struct {
	PerUser int
	PerIP   int
	Period  time.Duration
}

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	minIdempotencyKey = 16
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func RequestIDMiddleware(next http.Handler) http.Handler {
	return middleware.RequestID(next)
}

// LoggerMiddleware stores a request scoped logger in the context, writes one
// access log line per request and records the request metrics.
func LoggerMiddleware(logger observability.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := logger.WithField("request_id", middleware.GetReqID(r.Context()))
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r.WithContext(observability.WithLogger(r.Context(), entry)))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)
			observability.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status), r.Method).Inc()
			observability.RequestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
			entry.WithField("method", r.Method).
				WithField("route", route).
				WithField("status", rec.status).
				WithField("duration_ms", elapsed.Milliseconds()).
				Info("request completed")
		})
	}
}

func JWTMiddleware(tokens TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing authorization token")
				return
			}
			p, err := tokens.Parse(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// clientIP expects middleware.RealIP to have run first.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimitMiddleware limits by client address and, once authenticated, by
// user as well.
func RateLimitMiddleware(rl RateLimiter, limits RateLimits) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed := rl.Allow(r.Context(), "ip:"+clientIP(r), limits.PerIP, limits.Period)
			if p, ok := auth.FromContext(r.Context()); ok && allowed {
				allowed = rl.Allow(r.Context(), "user:"+p.UserID.String(), limits.PerUser, limits.Period)
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(limits.Period.Seconds())))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response for a repeated POST with
// the same Idempotency-Key. Keys are scoped to the caller and the path. While
// the first request runs the key is reserved and duplicates get 409. Server
// errors are not recorded so the client can retry them.
func IdempotencyMiddleware(store IdempotencyStore) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyHeader)
			if r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) < minIdempotencyKey {
				writeError(w, http.StatusBadRequest, "invalid Idempotency-Key")
				return
			}
			p, _ := auth.FromContext(r.Context())
			scoped := p.UserID.String() + ":" + r.URL.Path + ":" + key
			log := observability.LoggerFrom(r.Context(), observability.NewDiscardLogger())

			existing, err := store.Get(r.Context(), scoped)
			if err != nil {
				log.WithError(err).Error("idempotency lookup failed")
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if existing != nil {
				replay(w, existing)
				return
			}

			reserved, err := store.Reserve(r.Context(), scoped)
			if err != nil {
				log.WithError(err).Error("idempotency reserve failed")
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !reserved {
				// The holder may have finished between the lookup and the reserve.
				if existing, err := store.Get(r.Context(), scoped); err == nil && existing != nil {
					replay(w, existing)
					return
				}
				writeError(w, http.StatusConflict, "request with this Idempotency-Key is in progress")
				return
			}
			defer func() {
				if err := store.Release(context.WithoutCancel(r.Context()), scoped); err != nil {
					log.WithError(err).Warn("idempotency release failed")
				}
			}()

			cw := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(cw, r)
			if cw.status == 0 || cw.status >= http.StatusInternalServerError {
				return
			}
			if err := store.Set(context.WithoutCancel(r.Context()), scoped, idempotency.Response{
				Status:      cw.status,
				ContentType: cw.Header().Get("Content-Type"),
				Result:      cw.body.Bytes(),
			}); err != nil {
				log.WithError(err).Warn("idempotency record failed")
			}
		})
	}
}

func replay(w http.ResponseWriter, resp *idempotency.Response) {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(resp.Status)
	w.Write(resp.Result)
}

func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), otelhttp.HeaderCarrier(r.Header))
		tracer := otel.Tracer("http")
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path)
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.url", r.URL.String()),
		)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
