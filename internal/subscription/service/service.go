package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	catalogModels "villageinsure/internal/catalog/models"
	memberModels "villageinsure/internal/members/models"
	"villageinsure/internal/rules"
	"villageinsure/internal/subscription/metrics"
	"villageinsure/internal/subscription/models"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/sentinel"
	"villageinsure/pkg/platform/tracing"
	"villageinsure/pkg/requestcontext"
)

var tracer = tracing.Tracer("villageinsure/internal/subscription")

type SubscriptionStore interface {
	Create(ctx context.Context, sub *models.Subscription) error
	FindByID(ctx context.Context, subID id.SubscriptionID) (*models.Subscription, error)
	ListBySubscriber(ctx context.Context, subscriber id.Address) ([]*models.Subscription, error)
	Execute(ctx context.Context, subID id.SubscriptionID, validate func(*models.Subscription) error, mutate func(*models.Subscription)) (*models.Subscription, error)
	AppendPayment(ctx context.Context, payment models.Payment) error
	ListPayments(ctx context.Context, subID id.SubscriptionID) ([]models.Payment, error)
}

type Members interface {
	RequireActive(ctx context.Context, addr id.Address) (*memberModels.User, error)
}

type Policies interface {
	Get(ctx context.Context, policyID id.PolicyID) (*catalogModels.Policy, error)
	RequireActive(ctx context.Context, policyID id.PolicyID) (*catalogModels.Policy, error)
}

// Pool receives premiums and penalties.
type Pool interface {
	CreditPremium(ctx context.Context, amount decimal.Decimal) error
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

// Service owns the subscription ledger.
type Service struct {
	subscriptions  SubscriptionStore
	members        Members
	policies       Policies
	pool           Pool
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

func New(
	subscriptions SubscriptionStore,
	members Members,
	policies Policies,
	pool Pool,
	rulesProvider RulesProvider,
	tx Transactor,
	opts ...Option,
) *Service {
	s := &Service{
		subscriptions: subscriptions,
		members:       members,
		policies:      policies,
		pool:          pool,
		rules:         rulesProvider,
		tx:            tx,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// current brings a stored subscription up to ctx's clock.
func (s *Service) current(ctx context.Context, sub *models.Subscription) *models.Subscription {
	out := models.RecomputeDue(*sub, requestcontext.Now(ctx), s.rules.Current().GracePeriodWeeks)
	return &out
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

func subject(subID id.SubscriptionID) string {
	return "subscription:" + subID.String()
}

func wrapSubscriptionErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.ErrSubscriptionNotFound
	}
	if _, ok := dErrors.CodeOf(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "subscription store failure")
}
