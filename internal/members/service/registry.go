package service

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"villageinsure/internal/members/models"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/tracing"
	"villageinsure/pkg/requestcontext"
)

// Register creates a user for the calling wallet.
func (s *Service) Register(ctx context.Context, addr id.Address, name string) (user *models.User, err error) {
	ctx, span := tracing.Start(ctx, tracer, "members.Register", attribute.String("address", addr.String()))
	defer func() { tracing.End(span, err) }()

	if addr.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "address is required")
	}
	if requestcontext.Caller(ctx) != addr {
		return nil, models.ErrCallerMismatch
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r := s.rules.Current()
		u, err := models.NewUser(addr, name, r.InitialCreditScore, r.RequireMemberApproval, requestcontext.Now(ctx))
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, err.Error())
		}
		if err := s.users.Create(ctx, u); err != nil {
			return wrapUserErr(err)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered",
		"address", user.Address,
		"status", user.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.NewEvent(ctx, audit.EventUserRegistered, "user:"+addr.String()))
	s.incrementRegistered()
	return user, nil
}

// Get returns a user by address.
func (s *Service) Get(ctx context.Context, addr id.Address) (*models.User, error) {
	return s.find(ctx, addr)
}

// List returns all registered users.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return users, nil
}

// AdjustCredit is the privileged form of ApplyCreditDelta: the caller must be a
// DAO member or the call must come from an executing proposal.
func (s *Service) AdjustCredit(ctx context.Context, addr id.Address, delta int) (user *models.User, err error) {
	ctx, span := tracing.Start(ctx, tracer, "members.AdjustCredit", attribute.String("address", addr.String()))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.authorizeGovernor(ctx); err != nil {
			return err
		}
		user, err = s.ApplyCreditDelta(ctx, addr, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ApplyCreditDelta moves a user's credit score, clamped to [0,100]. It performs
// no authorization and is called by claim adjudication.
func (s *Service) ApplyCreditDelta(ctx context.Context, addr id.Address, delta int) (*models.User, error) {
	var (
		user    *models.User
		applied int
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		u, err := s.users.Execute(ctx, addr,
			func(*models.User) error { return nil },
			func(u *models.User) { applied = u.ApplyCreditDelta(delta) },
		)
		if err != nil {
			return wrapUserErr(err)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "credit score adjusted",
		"address", addr,
		"requested_delta", delta,
		"applied_delta", applied,
		"credit_score", user.CreditScore,
		"request_id", requestcontext.RequestID(ctx),
	)
	event := audit.NewEvent(ctx, audit.EventCreditAdjusted, "user:"+addr.String())
	event.Decision = strconv.Itoa(applied)
	s.emit(ctx, event)
	s.incrementCredit(applied)
	return user, nil
}

// AdjustReputation moves a user's reputation score. DAO member or proposal only.
func (s *Service) AdjustReputation(ctx context.Context, addr id.Address, delta int) (user *models.User, err error) {
	ctx, span := tracing.Start(ctx, tracer, "members.AdjustReputation", attribute.String("address", addr.String()))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.authorizeGovernor(ctx); err != nil {
			return err
		}
		u, err := s.users.Execute(ctx, addr,
			func(*models.User) error { return nil },
			func(u *models.User) { u.ApplyReputationDelta(delta) },
		)
		if err != nil {
			return wrapUserErr(err)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := audit.NewEvent(ctx, audit.EventReputationAdjusted, "user:"+addr.String())
	event.Decision = strconv.Itoa(delta)
	s.emit(ctx, event)
	return user, nil
}
