// Package middleware throttles state-changing requests per wallet, falling
// back to the client IP for anonymous callers.
package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"villageinsure/internal/ratelimit/metrics"
	"villageinsure/internal/ratelimit/models"
	"villageinsure/pkg/platform/httputil"
	"villageinsure/pkg/requestcontext"
)

// Limiter is a sliding-window counter keyed by string.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (*models.Result, error)
}

type Middleware struct {
	limiter  Limiter
	limit    int
	window   time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

func New(limiter Limiter, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("write rate limiting disabled")
	}
	return m
}

// Writes limits POST, PUT, PATCH and DELETE. Reads pass through. A store
// failure lets the request through and is logged.
func (m *Middleware) Writes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled || isRead(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		kind, key := subjectKey(r)
		result, err := m.limiter.Allow(ctx, key, m.limit, m.window, requestcontext.Now(ctx))
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check write rate limit",
				"request_id", requestcontext.RequestID(ctx),
				"kind", kind,
				"error", err,
			)
			if m.metrics != nil {
				m.metrics.IncrementStoreError()
			}
			next.ServeHTTP(w, r)
			return
		}

		addHeaders(w, result)
		if !result.Allowed {
			m.logger.WarnContext(ctx, "write rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"kind", kind,
			)
			if m.metrics != nil {
				m.metrics.IncrementRejection(kind)
			}
			writeExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func subjectKey(r *http.Request) (kind, key string) {
	if caller := requestcontext.Caller(r.Context()); !caller.IsNil() {
		return "wallet", "wallet:" + caller.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip", "ip:" + host
}

func addHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many write requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
