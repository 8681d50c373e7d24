package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"villageinsure/internal/catalog/metrics"
	"villageinsure/internal/catalog/models"
	memberModels "villageinsure/internal/members/models"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/sentinel"
	"villageinsure/pkg/platform/tracing"
	"villageinsure/pkg/requestcontext"
)

var tracer = tracing.Tracer("villageinsure/internal/catalog")

type PolicyStore interface {
	Create(ctx context.Context, policy *models.Policy) error
	FindByID(ctx context.Context, policyID id.PolicyID) (*models.Policy, error)
	List(ctx context.Context, status models.Status) ([]*models.Policy, error)
	Execute(ctx context.Context, policyID id.PolicyID, validate func(*models.Policy) error, mutate func(*models.Policy)) (*models.Policy, error)
}

// Members is the slice of the registry the catalog depends on.
type Members interface {
	RequireActive(ctx context.Context, addr id.Address) (*memberModels.User, error)
	AuthorizeGovernor(ctx context.Context) error
}

type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the policy catalog.
type Service struct {
	policies       PolicyStore
	members        Members
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

func New(policies PolicyStore, members Members, tx Transactor, opts ...Option) *Service {
	s := &Service{policies: policies, members: members, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Propose creates a policy on behalf of the caller. The policy starts Pending
// unless it opts out of DAO approval and the creator is a DAO member.
func (s *Service) Propose(ctx context.Context, title, description string, params models.Params) (policy *models.Policy, err error) {
	ctx, span := tracing.Start(ctx, tracer, "catalog.Propose")
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		creator, err := s.members.RequireActive(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		p, err := s.create(ctx, title, description, params, creator.Address)
		if err != nil {
			return err
		}
		if !params.RequiresDAOApproval && creator.IsDAOMember {
			p.ApplyActivation()
		}
		if err := s.policies.Create(ctx, p); err != nil {
			return wrapPolicyErr(err)
		}
		policy = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterCreate(ctx, policy)
	return policy, nil
}

// CreateFromProposal creates an Active policy from an executing PlanManagement
// proposal.
func (s *Service) CreateFromProposal(ctx context.Context, title, description string, params models.Params) (policy *models.Policy, err error) {
	ctx, span := tracing.Start(ctx, tracer, "catalog.CreateFromProposal")
	defer func() { tracing.End(span, err) }()

	if _, ok := requestcontext.ExecutingProposal(ctx); !ok {
		return nil, memberModels.ErrProposalRequired
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.create(ctx, title, description, params, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		p.ApplyActivation()
		if err := s.policies.Create(ctx, p); err != nil {
			return wrapPolicyErr(err)
		}
		policy = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterCreate(ctx, policy)
	return policy, nil
}

func (s *Service) create(ctx context.Context, title, description string, params models.Params, creator id.Address) (*models.Policy, error) {
	return models.NewPolicy(id.PolicyID(uuid.New()), title, description, params, creator, requestcontext.Now(ctx))
}

func (s *Service) afterCreate(ctx context.Context, policy *models.Policy) {
	s.logger.InfoContext(ctx, "policy proposed",
		"policy_id", policy.ID,
		"status", policy.Status,
		"creator", policy.Creator,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.NewEvent(ctx, audit.EventPolicyProposed, subject(policy.ID)))
	if policy.IsActive() {
		s.emit(ctx, audit.NewEvent(ctx, audit.EventPolicyActivated, subject(policy.ID)))
	}
	if s.metrics != nil {
		s.metrics.IncrementProposed()
	}
}

// Activate moves a Pending policy to Active. Executing proposal only.
func (s *Service) Activate(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	if _, ok := requestcontext.ExecutingProposal(ctx); !ok {
		return nil, memberModels.ErrProposalRequired
	}
	return s.transition(ctx, "catalog.Activate", policyID, audit.EventPolicyActivated,
		(*models.Policy).CanActivate, (*models.Policy).ApplyActivation)
}

// Archive retires a policy. DAO member or executing proposal.
func (s *Service) Archive(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	if err := s.members.AuthorizeGovernor(ctx); err != nil {
		return nil, err
	}
	return s.transition(ctx, "catalog.Archive", policyID, audit.EventPolicyArchived,
		(*models.Policy).CanArchive, (*models.Policy).ApplyArchive)
}

// Delete removes a policy from the catalog. DAO member or executing proposal.
func (s *Service) Delete(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	if err := s.members.AuthorizeGovernor(ctx); err != nil {
		return nil, err
	}
	return s.transition(ctx, "catalog.Delete", policyID, audit.EventPolicyDeleted,
		(*models.Policy).CanDelete, (*models.Policy).ApplyDelete)
}

func (s *Service) transition(
	ctx context.Context,
	op string,
	policyID id.PolicyID,
	action audit.AuditEvent,
	validate func(*models.Policy) error,
	mutate func(*models.Policy),
) (policy *models.Policy, err error) {
	ctx, span := tracing.Start(ctx, tracer, op, attribute.String("policy_id", policyID.String()))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.policies.Execute(ctx, policyID,
			func(p *models.Policy) error { return invariantToState(validate(p)) },
			mutate,
		)
		if err != nil {
			return wrapPolicyErr(err)
		}
		policy = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "policy status changed",
		"policy_id", policyID,
		"status", policy.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.NewEvent(ctx, action, subject(policyID)))
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(policy.Status))
	}
	return policy, nil
}

// Get returns a policy by id.
func (s *Service) Get(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	p, err := s.policies.FindByID(ctx, policyID)
	if err != nil {
		return nil, wrapPolicyErr(err)
	}
	return p, nil
}

// List returns policies, optionally filtered by status.
func (s *Service) List(ctx context.Context, status models.Status) ([]*models.Policy, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown policy status")
	}
	policies, err := s.policies.List(ctx, status)
	if err != nil {
		return nil, wrapPolicyErr(err)
	}
	return policies, nil
}

// RequireActive returns the policy when it accepts new subscriptions.
func (s *Service) RequireActive(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	p, err := s.Get(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, models.ErrPolicyNotActive
	}
	return p, nil
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

func subject(policyID id.PolicyID) string {
	return "policy:" + policyID.String()
}

func wrapPolicyErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.ErrPolicyNotFound
	}
	if _, ok := dErrors.CodeOf(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "policy store failure")
}

func invariantToState(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeInvalidState, de.Message)
	}
	return err
}
