package service

import (
	"context"
	"errors"
	"log/slog"

	"villageinsure/internal/members/metrics"
	"villageinsure/internal/members/models"
	"villageinsure/internal/rules"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/sentinel"
	"villageinsure/pkg/platform/tracing"
	"villageinsure/pkg/requestcontext"
)

var tracer = tracing.Tracer("villageinsure/internal/members")

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByAddress(ctx context.Context, addr id.Address) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	CountVotingMembers(ctx context.Context) (int, error)
	ListVotingMembers(ctx context.Context) ([]id.Address, error)
	Execute(ctx context.Context, addr id.Address, validate func(*models.User) error, mutate func(*models.User)) (*models.User, error)
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

// Service owns the user registry.
type Service struct {
	users          UserStore
	rules          RulesProvider
	tx             Transactor
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(users UserStore, rulesProvider RulesProvider, tx Transactor, opts ...Option) *Service {
	s := &Service{users: users, rules: rulesProvider, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
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

func (s *Service) find(ctx context.Context, addr id.Address) (*models.User, error) {
	u, err := s.users.FindByAddress(ctx, addr)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return u, nil
}

func wrapUserErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return models.ErrUserNotFound
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return models.ErrAlreadyRegistered
	}
	if _, ok := dErrors.CodeOf(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
}

// invariantToState turns a model invariant violation into an InvalidState
// error for callers; other errors pass through.
func invariantToState(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeInvalidState, de.Message)
	}
	return err
}

func (s *Service) incrementRegistered() {
	if s.metrics != nil {
		s.metrics.IncrementUsersRegistered()
	}
}

func (s *Service) incrementCredit(delta int) {
	if s.metrics != nil && delta != 0 {
		s.metrics.IncrementCreditAdjustment(delta)
	}
}

func (s *Service) incrementMembership(kind string) {
	if s.metrics != nil {
		s.metrics.IncrementMembershipChange(kind)
	}
}
