// Package httpapi assembles the public HTTP surface: shared middleware, the
// operational endpoints and one handler per ledger module.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"villageinsure/internal/platform/metrics"
	adminmw "villageinsure/pkg/platform/middleware/admin"
	authmw "villageinsure/pkg/platform/middleware/auth"
	request "villageinsure/pkg/platform/middleware/request"
	"villageinsure/pkg/platform/middleware/requesttime"
)

// Module is a handler that mounts its own routes.
type Module interface {
	Register(r chi.Router)
}

// Config carries the router's collaborators. Optional fields disable the
// endpoints that need them when nil.
type Config struct {
	Logger    *slog.Logger
	Validator authmw.WalletValidator
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Audit     AuditReader
	// Tokens enables POST /auth/token behind the admin token.
	Tokens     TokenIssuer
	AdminToken string
	Clock      func() time.Time
	Health     func(ctx context.Context) error
	// RateLimit runs after wallet authentication so limits key on the caller.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter wires middleware and mounts every module under the wallet
// middleware. Anonymous requests reach the modules; handlers that mutate state
// demand a caller themselves.
func NewRouter(cfg Config, modules ...Module) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(requesttime.MiddlewareWithClock(clock))

	r.Get("/healthz", healthHandler(cfg.Health))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Tokens != nil {
		tokens := &tokenHandler{issuer: cfg.Tokens, logger: logger}
		r.With(adminmw.RequireAdminToken(cfg.AdminToken, logger)).Post("/auth/token", tokens.HandleIssue)
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.OptionalWallet(cfg.Validator, logger))
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}
		for _, m := range modules {
			m.Register(r)
		}
		if cfg.Audit != nil {
			(&auditHandler{reader: cfg.Audit, logger: logger}).Register(r)
		}
	})
	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			if err := check(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
