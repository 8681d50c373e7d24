package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	catalogModels "villageinsure/internal/catalog/models"
	memberModels "villageinsure/internal/members/models"
	"villageinsure/internal/pool/metrics"
	"villageinsure/internal/pool/models"
	"villageinsure/internal/rules"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/sentinel"
	"villageinsure/pkg/platform/tracing"
	"villageinsure/pkg/requestcontext"
)

var tracer = tracing.Tracer("villageinsure/internal/pool")

type PoolStore interface {
	Snapshot(ctx context.Context) (*models.SafetyPool, error)
	Execute(ctx context.Context, validate func(*models.SafetyPool) error, mutate func(*models.SafetyPool)) (*models.SafetyPool, error)
	CreateInvestment(ctx context.Context, inv *models.Investment) error
	FindInvestment(ctx context.Context, invID id.InvestmentID) (*models.Investment, error)
	ListInvestments(ctx context.Context, investor id.Address) ([]*models.Investment, error)
	ExecuteInvestment(ctx context.Context, invID id.InvestmentID, validate func(*models.Investment) error, mutate func(*models.Investment)) (*models.Investment, error)
}

type Members interface {
	RequireActive(ctx context.Context, addr id.Address) (*memberModels.User, error)
	AuthorizeGovernor(ctx context.Context) error
}

type Policies interface {
	RequireActive(ctx context.Context, policyID id.PolicyID) (*catalogModels.Policy, error)
}

type RulesProvider interface {
	Current() rules.Rules
}

type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the safety pool ledger. Every money movement in the system
// passes through it.
type Service struct {
	store          PoolStore
	members        Members
	policies       Policies
	rules          RulesProvider
	tx             Transactor
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store PoolStore, members Members, policies Policies, rulesProvider RulesProvider, tx Transactor, opts ...Option) *Service {
	s := &Service{
		store:    store,
		members:  members,
		policies: policies,
		rules:    rulesProvider,
		tx:       tx,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// move applies one ledger movement inside the ledger transaction.
func (s *Service) move(ctx context.Context, kind string, validate func(*models.SafetyPool) error, mutate func(*models.SafetyPool)) (*models.SafetyPool, error) {
	var pool *models.SafetyPool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.store.Execute(ctx, validate, mutate)
		if err != nil {
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeResourceExhausted) && s.metrics != nil {
			s.metrics.IncrementRejectedDebit(kind)
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "pool movement",
		"kind", kind,
		"total_balance", pool.TotalBalance.String(),
		"reserve_ratio_bps", pool.ReserveRatioBps,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.ObserveMovement(kind, pool.TotalBalance.InexactFloat64(), pool.ReserveRatioBps)
	}
	return pool, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func (s *Service) emitAmount(ctx context.Context, action audit.AuditEvent, subject string, amount decimal.Decimal) {
	event := audit.NewEvent(ctx, action, subject)
	event.Amount = amount.String()
	s.emit(ctx, event)
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	return nil
}

func requireProposal(ctx context.Context) error {
	if _, ok := requestcontext.ExecutingProposal(ctx); !ok {
		return memberModels.ErrProposalRequired
	}
	return nil
}

func wrapInvestmentErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.ErrInvestmentNotFound
	}
	if _, ok := dErrors.CodeOf(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "investment store failure")
}
