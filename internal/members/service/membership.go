package service

import (
	"context"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"villageinsure/internal/members/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/tracing"
	"villageinsure/pkg/requestcontext"
)

// Activate promotes a pending (or reinstates a banned) user. Only an executing
// UserApproval proposal may call it.
func (s *Service) Activate(ctx context.Context, addr id.Address) (user *models.User, err error) {
	ctx, span := tracing.Start(ctx, tracer, "members.Activate", attribute.String("address", addr.String()))
	defer func() { tracing.End(span, err) }()

	if err := requireProposal(ctx); err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		u, err := s.users.Execute(ctx, addr,
			func(u *models.User) error { return invariantToState(u.CanActivate()) },
			func(u *models.User) { u.ApplyActivation() },
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

	s.logger.InfoContext(ctx, "user activated",
		"address", addr,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.NewEvent(ctx, audit.EventUserActivated, "user:"+addr.String()))
	s.incrementMembership("activate")
	return user, nil
}

// Ban bans a user and drops their DAO membership. Executing proposal only.
func (s *Service) Ban(ctx context.Context, addr id.Address) (user *models.User, err error) {
	ctx, span := tracing.Start(ctx, tracer, "members.Ban", attribute.String("address", addr.String()))
	defer func() { tracing.End(span, err) }()

	if err := requireProposal(ctx); err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		u, err := s.users.Execute(ctx, addr,
			func(u *models.User) error { return invariantToState(u.CanBan()) },
			func(u *models.User) { u.ApplyBan() },
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

	s.logger.InfoContext(ctx, "user banned",
		"address", addr,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.NewEvent(ctx, audit.EventUserBanned, "user:"+addr.String()))
	s.incrementMembership("ban")
	return user, nil
}

// SetDAOMembership grants or revokes DAO membership. Executing proposal only.
// Granting respects the council size rule.
func (s *Service) SetDAOMembership(ctx context.Context, addr id.Address, member bool) (user *models.User, err error) {
	ctx, span := tracing.Start(ctx, tracer, "members.SetDAOMembership",
		attribute.String("address", addr.String()),
		attribute.Bool("member", member),
	)
	defer func() { tracing.End(span, err) }()

	if err := requireProposal(ctx); err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if member {
			if err := s.checkCouncilCapacity(ctx); err != nil {
				return err
			}
		}
		u, err := s.users.Execute(ctx, addr,
			func(u *models.User) error { return invariantToState(u.CanSetDAOMembership(member)) },
			func(u *models.User) { u.ApplyDAOMembership(member) },
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

	s.logger.InfoContext(ctx, "dao membership changed",
		"address", addr,
		"member", member,
		"request_id", requestcontext.RequestID(ctx),
	)
	event := audit.NewEvent(ctx, audit.EventDAOMembershipSet, "user:"+addr.String())
	event.Decision = strconv.FormatBool(member)
	s.emit(ctx, event)
	s.incrementMembership("dao")
	return user, nil
}

func (s *Service) checkCouncilCapacity(ctx context.Context) error {
	limit := s.rules.Current().CouncilSize
	if limit == 0 {
		return nil
	}
	n, err := s.users.CountVotingMembers(ctx)
	if err != nil {
		return wrapUserErr(err)
	}
	if n >= limit {
		return models.ErrCouncilFull
	}
	return nil
}

// Bootstrap registers the genesis DAO members as active members. Existing
// users are promoted. It bypasses proposals and the council size.
func (s *Service) Bootstrap(ctx context.Context, addrs []id.Address) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		initial := s.rules.Current().InitialCreditScore
		for _, addr := range addrs {
			u, err := models.NewUser(addr, "", initial, false, now)
			if err != nil {
				return err
			}
			u.ApplyDAOMembership(true)
			err = s.users.Create(ctx, u)
			if err == nil {
				s.logger.InfoContext(ctx, "genesis dao member registered", "address", addr)
				continue
			}
			if !errors.Is(wrapUserErr(err), models.ErrAlreadyRegistered) {
				return wrapUserErr(err)
			}
			_, err = s.users.Execute(ctx, addr,
				func(*models.User) error { return nil },
				func(u *models.User) {
					if u.Status != models.StatusActive {
						u.ApplyActivation()
					}
					u.ApplyDAOMembership(true)
				},
			)
			if err != nil {
				return wrapUserErr(err)
			}
		}
		s.warnSmallCouncil(ctx)
		return nil
	})
}

// warnSmallCouncil logs when the council cannot reach the configured quorums.
// Claim votes cap their quorum at the council size; proposals do not.
func (s *Service) warnSmallCouncil(ctx context.Context) {
	n, err := s.users.CountVotingMembers(ctx)
	if err != nil {
		return
	}
	r := s.rules.Current()
	if n < r.MinimumQuorum || n < r.ClaimQuorum {
		s.logger.WarnContext(ctx, "genesis council smaller than configured quorum",
			"council", n,
			"minimum_quorum", r.MinimumQuorum,
			"claim_quorum", r.ClaimQuorum,
		)
	}
}

// RequireActive returns the user when they are registered and Active.
func (s *Service) RequireActive(ctx context.Context, addr id.Address) (*models.User, error) {
	if addr.IsNil() {
		return nil, models.ErrNotRegistered
	}
	u, err := s.users.FindByAddress(ctx, addr)
	if err != nil {
		if errors.Is(wrapUserErr(err), models.ErrUserNotFound) {
			return nil, models.ErrNotRegistered
		}
		return nil, wrapUserErr(err)
	}
	if !u.IsActive() {
		return nil, models.ErrUserNotActive
	}
	return u, nil
}

// RequireVotingMember returns the user when they are an active DAO member.
func (s *Service) RequireVotingMember(ctx context.Context, addr id.Address) (*models.User, error) {
	u, err := s.RequireActive(ctx, addr)
	if err != nil {
		if errors.Is(err, models.ErrNotRegistered) || errors.Is(err, models.ErrUserNotActive) {
			return nil, models.ErrNotDAOMember
		}
		return nil, err
	}
	if !u.IsDAOMember {
		return nil, models.ErrNotDAOMember
	}
	return u, nil
}

// CountVotingMembers returns the number of eligible DAO voters.
func (s *Service) CountVotingMembers(ctx context.Context) (int, error) {
	n, err := s.users.CountVotingMembers(ctx)
	if err != nil {
		return 0, wrapUserErr(err)
	}
	return n, nil
}

// VotingMembers lists the addresses currently allowed to vote.
func (s *Service) VotingMembers(ctx context.Context) ([]id.Address, error) {
	addrs, err := s.users.ListVotingMembers(ctx)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return addrs, nil
}

// RecordVote stamps the member's last vote time.
func (s *Service) RecordVote(ctx context.Context, addr id.Address) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		_, err := s.users.Execute(ctx, addr,
			func(*models.User) error { return nil },
			func(u *models.User) { u.ApplyVote(now) },
		)
		if err != nil {
			return wrapUserErr(err)
		}
		return nil
	})
}

// AuthorizeGovernor succeeds inside an executing proposal or when the caller
// is an active DAO member.
func (s *Service) AuthorizeGovernor(ctx context.Context) error {
	return s.authorizeGovernor(ctx)
}

func (s *Service) authorizeGovernor(ctx context.Context) error {
	if _, ok := requestcontext.ExecutingProposal(ctx); ok {
		return nil
	}
	_, err := s.RequireVotingMember(ctx, requestcontext.Caller(ctx))
	return err
}

func requireProposal(ctx context.Context) error {
	if _, ok := requestcontext.ExecutingProposal(ctx); !ok {
		return models.ErrProposalRequired
	}
	return nil
}
