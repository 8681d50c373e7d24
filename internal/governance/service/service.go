package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	catalogModels "villageinsure/internal/catalog/models"
	"villageinsure/internal/governance/metrics"
	"villageinsure/internal/governance/models"
	memberModels "villageinsure/internal/members/models"
	poolModels "villageinsure/internal/pool/models"
	"villageinsure/internal/rules"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/sentinel"
	"villageinsure/pkg/platform/tracing"
	"villageinsure/pkg/requestcontext"
)

var tracer = tracing.Tracer("villageinsure/internal/governance")

type ProposalStore interface {
	Create(ctx context.Context, p *models.Proposal) error
	FindByID(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error)
	List(ctx context.Context) ([]*models.Proposal, error)
	Execute(ctx context.Context, proposalID id.ProposalID, validate func(*models.Proposal) error, mutate func(*models.Proposal)) (*models.Proposal, error)
}

// Members covers voter checks and the UserApproval mutations.
type Members interface {
	RequireVotingMember(ctx context.Context, addr id.Address) (*memberModels.User, error)
	VotingMembers(ctx context.Context) ([]id.Address, error)
	RecordVote(ctx context.Context, addr id.Address) error
	Activate(ctx context.Context, addr id.Address) (*memberModels.User, error)
	Ban(ctx context.Context, addr id.Address) (*memberModels.User, error)
	SetDAOMembership(ctx context.Context, addr id.Address, member bool) (*memberModels.User, error)
}

// Policies covers the PlanManagement mutations.
type Policies interface {
	CreateFromProposal(ctx context.Context, title, description string, params catalogModels.Params) (*catalogModels.Policy, error)
	Activate(ctx context.Context, policyID id.PolicyID) (*catalogModels.Policy, error)
	Archive(ctx context.Context, policyID id.PolicyID) (*catalogModels.Policy, error)
	Delete(ctx context.Context, policyID id.PolicyID) (*catalogModels.Policy, error)
}

// Pool covers the Financial mutations.
type Pool interface {
	AddExternalFunding(ctx context.Context, amount decimal.Decimal) (*poolModels.SafetyPool, error)
	WithdrawReserve(ctx context.Context, amount decimal.Decimal, purpose string) (*poolModels.SafetyPool, error)
	SetMinimumReserve(ctx context.Context, amount decimal.Decimal) (*poolModels.SafetyPool, error)
}

// RulesStore holds platform rules; Governance proposals update it.
type RulesStore interface {
	Current() rules.Rules
	Update(p rules.Patch) (rules.Rules, error)
}

type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the proposal lifecycle and executes passed proposals against
// the other modules.
type Service struct {
	proposals      ProposalStore
	members        Members
	policies       Policies
	pool           Pool
	rules          RulesStore
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
	proposals ProposalStore,
	members Members,
	policies Policies,
	pool Pool,
	rulesStore RulesStore,
	tx Transactor,
	opts ...Option,
) *Service {
	s := &Service{
		proposals: proposals,
		members:   members,
		policies:  policies,
		pool:      pool,
		rules:     rulesStore,
		tx:        tx,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// settled brings a stored proposal up to ctx's clock.
func settled(ctx context.Context, p *models.Proposal) *models.Proposal {
	out := models.Settle(*p, requestcontext.Now(ctx))
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

func subject(proposalID id.ProposalID) string {
	return "proposal:" + proposalID.String()
}

func wrapProposalErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.ErrProposalNotFound
	}
	if _, ok := dErrors.CodeOf(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "proposal store failure")
}
