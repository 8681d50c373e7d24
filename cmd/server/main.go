package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"villageinsure/internal/app"
	httpapi "villageinsure/internal/http"
	jwttoken "villageinsure/internal/jwt_token"
	"villageinsure/internal/platform/config"
	"villageinsure/internal/platform/httpserver"
	"villageinsure/internal/platform/logger"
	"villageinsure/internal/platform/metrics"
	platformredis "villageinsure/internal/platform/redis"
	ratelimitmetrics "villageinsure/internal/ratelimit/metrics"
	ratelimitmw "villageinsure/internal/ratelimit/middleware"
	ratelimitstore "villageinsure/internal/ratelimit/store"
	"villageinsure/pkg/platform/audit/publisher"
)

// main wires configuration, the module graph and the HTTP server, then runs
// until SIGINT or SIGTERM.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var rdb *platformredis.Client
	if cfg.Redis.URL != "" {
		rdb, err = platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
	}

	backend, err := openAuditBackend(ctx, cfg, g, rdb, log)
	if err != nil {
		return err
	}
	defer backend.Close()
	auditPublisher := publisher.NewPublisher(backend.store,
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		publisher.WithLogger(log),
	)
	defer auditPublisher.Close()

	ledger := app.New(app.Options{
		Rules:          cfg.Rules,
		MinimumReserve: cfg.Pool.MinimumReserve,
		TxTimeout:      cfg.Server.TxTimeout,
		Audit:          auditPublisher,
		Registerer:     reg,
		Logger:         log,
	})
	if err := ledger.Bootstrap(ctx, cfg.GenesisDAOMembers); err != nil {
		return fmt.Errorf("bootstrap genesis council: %w", err)
	}

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	routerCfg := httpapi.Config{
		Logger:     log,
		Validator:  jwtService.Validator(),
		Metrics:    metrics.New(reg),
		Gatherer:   reg,
		Audit:      auditPublisher,
		AdminToken: cfg.Server.AdminToken,
		Health:     backend.health,
		RateLimit:  newRateLimiter(cfg.RateLimit, rdb, reg, log).Writes,
	}
	if cfg.Server.DevMode {
		routerCfg.Tokens = jwtService
		log.WarnContext(ctx, "dev mode enabled, POST /auth/token mints wallet tokens")
	}
	srv := httpserver.New(cfg.Server.Addr, httpapi.NewRouter(routerCfg, ledger.Handlers(log)...), log)

	g.Go(func() error {
		log.InfoContext(ctx, "starting villageinsure", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newRateLimiter shares limits through Redis when a client is configured and
// falls back to process-local windows otherwise.
func newRateLimiter(cfg config.RateLimitConfig, rdb *platformredis.Client, reg prometheus.Registerer, log *slog.Logger) *ratelimitmw.Middleware {
	var limiter ratelimitmw.Limiter = ratelimitstore.NewInMemory()
	if rdb != nil {
		limiter = ratelimitstore.NewRedis(rdb.Client)
	}
	return ratelimitmw.New(limiter, cfg.Requests, cfg.Window, log,
		ratelimitmw.WithDisabled(!cfg.Enabled),
		ratelimitmw.WithMetrics(ratelimitmetrics.New(reg)),
	)
}
