package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	catalogModels "villageinsure/internal/catalog/models"
	"villageinsure/internal/claims/metrics"
	"villageinsure/internal/claims/models"
	memberModels "villageinsure/internal/members/models"
	"villageinsure/internal/rules"
	subModels "villageinsure/internal/subscription/models"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/sentinel"
	"villageinsure/pkg/platform/tracing"
	"villageinsure/pkg/requestcontext"
)

var tracer = tracing.Tracer("villageinsure/internal/claims")

type ClaimStore interface {
	Create(ctx context.Context, claim *models.Claim) error
	FindByID(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
	List(ctx context.Context, status models.Status) ([]*models.Claim, error)
	ListByClaimer(ctx context.Context, claimer id.Address) ([]*models.Claim, error)
	ListBySubscription(ctx context.Context, subID id.SubscriptionID) ([]*models.Claim, error)
	Execute(ctx context.Context, claimID id.ClaimID, validate func(*models.Claim) error, mutate func(*models.Claim)) (*models.Claim, error)
}

// Members is the slice of the registry adjudication depends on.
type Members interface {
	RequireActive(ctx context.Context, addr id.Address) (*memberModels.User, error)
	RequireVotingMember(ctx context.Context, addr id.Address) (*memberModels.User, error)
	RecordVote(ctx context.Context, addr id.Address) error
	CountVotingMembers(ctx context.Context) (int, error)
	ApplyCreditDelta(ctx context.Context, addr id.Address, delta int) (*memberModels.User, error)
}

type Subscriptions interface {
	Get(ctx context.Context, subID id.SubscriptionID) (*subModels.Subscription, error)
}

type Policies interface {
	Get(ctx context.Context, policyID id.PolicyID) (*catalogModels.Policy, error)
}

// Pool pays approved claims.
type Pool interface {
	PayClaim(ctx context.Context, amount decimal.Decimal) error
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

// Service adjudicates claims.
type Service struct {
	claims         ClaimStore
	members        Members
	subscriptions  Subscriptions
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
	claims ClaimStore,
	members Members,
	subscriptions Subscriptions,
	policies Policies,
	pool Pool,
	rulesProvider RulesProvider,
	tx Transactor,
	opts ...Option,
) *Service {
	s := &Service{
		claims:        claims,
		members:       members,
		subscriptions: subscriptions,
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

func (s *Service) find(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	claim, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		return nil, wrapClaimErr(err)
	}
	return claim, nil
}

// slash applies the policy's rejection penalty to the claimer.
func (s *Service) slash(ctx context.Context, claim *models.Claim, policy *catalogModels.Policy) error {
	if policy.CreditSlashOnReject == 0 {
		return nil
	}
	_, err := s.members.ApplyCreditDelta(ctx, claim.Claimer, -policy.CreditSlashOnReject)
	return err
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

func (s *Service) recordOutcome(outcome models.Status, path string) {
	if s.metrics != nil {
		s.metrics.IncrementOutcome(string(outcome), path)
	}
}

func subject(claimID id.ClaimID) string {
	return "claim:" + claimID.String()
}

func wrapClaimErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.ErrClaimNotFound
	}
	if _, ok := dErrors.CodeOf(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "claim store failure")
}
