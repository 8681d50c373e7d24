// Package app composes the ledger modules over in-memory stores and a shared
// serializer. main and the end-to-end router tests build the same graph.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	catalogHandler "villageinsure/internal/catalog/handler"
	catalogMetrics "villageinsure/internal/catalog/metrics"
	catalogService "villageinsure/internal/catalog/service"
	catalogStore "villageinsure/internal/catalog/store"
	claimsHandler "villageinsure/internal/claims/handler"
	claimsMetrics "villageinsure/internal/claims/metrics"
	claimsService "villageinsure/internal/claims/service"
	claimsStore "villageinsure/internal/claims/store"
	governanceHandler "villageinsure/internal/governance/handler"
	governanceMetrics "villageinsure/internal/governance/metrics"
	governanceService "villageinsure/internal/governance/service"
	governanceStore "villageinsure/internal/governance/store"
	httpapi "villageinsure/internal/http"
	memberHandler "villageinsure/internal/members/handler"
	memberMetrics "villageinsure/internal/members/metrics"
	memberService "villageinsure/internal/members/service"
	memberStore "villageinsure/internal/members/store"
	poolHandler "villageinsure/internal/pool/handler"
	poolMetrics "villageinsure/internal/pool/metrics"
	poolModels "villageinsure/internal/pool/models"
	poolService "villageinsure/internal/pool/service"
	poolStore "villageinsure/internal/pool/store"
	"villageinsure/internal/rules"
	subscriptionHandler "villageinsure/internal/subscription/handler"
	subscriptionMetrics "villageinsure/internal/subscription/metrics"
	subscriptionService "villageinsure/internal/subscription/service"
	subscriptionStore "villageinsure/internal/subscription/store"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// Options configures the module graph. Audit and Registerer are optional.
type Options struct {
	Rules          rules.Rules
	MinimumReserve decimal.Decimal
	TxTimeout      time.Duration
	Audit          audit.Emitter
	Registerer     prometheus.Registerer
	Logger         *slog.Logger
}

// App holds the wired services.
type App struct {
	Rules         *rules.Store
	Members       *memberService.Service
	Catalog       *catalogService.Service
	Subscriptions *subscriptionService.Service
	Claims        *claimsService.Service
	Governance    *governanceService.Service
	Pool          *poolService.Service
}

// New builds every module. All services share one serializer so a
// cross-module mutation commits or fails as a unit.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.TxTimeout
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	serializer := tx.NewSerializer(timeout)
	ruleStore := rules.NewStore(opts.Rules)

	memberOpts := []memberService.Option{memberService.WithLogger(logger)}
	catalogOpts := []catalogService.Option{catalogService.WithLogger(logger)}
	poolOpts := []poolService.Option{poolService.WithLogger(logger)}
	subscriptionOpts := []subscriptionService.Option{subscriptionService.WithLogger(logger)}
	claimsOpts := []claimsService.Option{claimsService.WithLogger(logger)}
	governanceOpts := []governanceService.Option{governanceService.WithLogger(logger)}

	if opts.Audit != nil {
		memberOpts = append(memberOpts, memberService.WithAuditPublisher(opts.Audit))
		catalogOpts = append(catalogOpts, catalogService.WithAuditPublisher(opts.Audit))
		poolOpts = append(poolOpts, poolService.WithAuditPublisher(opts.Audit))
		subscriptionOpts = append(subscriptionOpts, subscriptionService.WithAuditPublisher(opts.Audit))
		claimsOpts = append(claimsOpts, claimsService.WithAuditPublisher(opts.Audit))
		governanceOpts = append(governanceOpts, governanceService.WithAuditPublisher(opts.Audit))
	}
	if reg := opts.Registerer; reg != nil {
		memberOpts = append(memberOpts, memberService.WithMetrics(memberMetrics.New(reg)))
		catalogOpts = append(catalogOpts, catalogService.WithMetrics(catalogMetrics.New(reg)))
		poolOpts = append(poolOpts, poolService.WithMetrics(poolMetrics.New(reg)))
		subscriptionOpts = append(subscriptionOpts, subscriptionService.WithMetrics(subscriptionMetrics.New(reg)))
		claimsOpts = append(claimsOpts, claimsService.WithMetrics(claimsMetrics.New(reg)))
		governanceOpts = append(governanceOpts, governanceService.WithMetrics(governanceMetrics.New(reg)))
	}

	a := &App{Rules: ruleStore}
	a.Members = memberService.New(memberStore.NewInMemory(), ruleStore, serializer, memberOpts...)
	a.Catalog = catalogService.New(catalogStore.NewInMemory(), a.Members, serializer, catalogOpts...)
	a.Pool = poolService.New(
		poolStore.NewInMemory(poolModels.NewSafetyPool(opts.MinimumReserve)),
		a.Members, a.Catalog, ruleStore, serializer, poolOpts...,
	)
	a.Subscriptions = subscriptionService.New(
		subscriptionStore.NewInMemory(),
		a.Members, a.Catalog, a.Pool, ruleStore, serializer, subscriptionOpts...,
	)
	a.Claims = claimsService.New(
		claimsStore.NewInMemory(),
		a.Members, a.Subscriptions, a.Catalog, a.Pool, ruleStore, serializer, claimsOpts...,
	)
	a.Governance = governanceService.New(
		governanceStore.NewInMemory(),
		a.Members, a.Catalog, a.Pool, ruleStore, serializer, governanceOpts...,
	)
	return a
}

// Bootstrap seeds the genesis DAO council.
func (a *App) Bootstrap(ctx context.Context, genesis []id.Address) error {
	if len(genesis) == 0 {
		return nil
	}
	return a.Members.Bootstrap(ctx, genesis)
}

// Handlers returns one HTTP module per service.
func (a *App) Handlers(logger *slog.Logger) []httpapi.Module {
	if logger == nil {
		logger = slog.Default()
	}
	return []httpapi.Module{
		memberHandler.New(a.Members, logger),
		catalogHandler.New(a.Catalog, logger),
		subscriptionHandler.New(a.Subscriptions, logger),
		claimsHandler.New(a.Claims, logger),
		governanceHandler.New(a.Governance, logger),
		poolHandler.New(a.Pool, logger),
	}
}
