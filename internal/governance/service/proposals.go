package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"villageinsure/internal/governance/models"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/tracing"
	"villageinsure/pkg/requestcontext"
)

// Create opens a proposal. The proposer must be a DAO member and the
// execution data must decode for the proposal type.
func (s *Service) Create(ctx context.Context, draft models.Draft) (proposal *models.Proposal, err error) {
	ctx, span := tracing.Start(ctx, tracer, "governance.Create", attribute.String("proposal_type", string(draft.Type)))
	defer func() { tracing.End(span, err) }()

	if err := draft.Validate(); err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		proposer, err := s.members.RequireVotingMember(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		r := s.rules.Current()
		created := models.NewProposal(id.ProposalID(uuid.New()), proposer.Address, draft,
			r.MinimumQuorum, r.ProposalDuration, requestcontext.Now(ctx))
		if err := s.proposals.Create(ctx, created); err != nil {
			return wrapProposalErr(err)
		}
		proposal = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "proposal created",
		"proposal_id", proposal.ID,
		"proposal_type", proposal.Type,
		"voting_period_end", proposal.VotingPeriodEnd,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.NewEvent(ctx, audit.EventProposalCreated, subject(proposal.ID)))
	if s.metrics != nil {
		s.metrics.IncrementCreated(string(proposal.Type))
	}
	return proposal, nil
}

// Vote casts the caller's single vote. The proposal resolves as soon as the
// outcome is fixed given the members yet to vote.
func (s *Service) Vote(ctx context.Context, proposalID id.ProposalID, support bool) (proposal *models.Proposal, err error) {
	ctx, span := tracing.Start(ctx, tracer, "governance.Vote", attribute.String("proposal_id", proposalID.String()))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		voter, err := s.members.RequireVotingMember(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		eligible, err := s.members.VotingMembers(ctx)
		if err != nil {
			return err
		}
		stored, err := s.proposals.FindByID(ctx, proposalID)
		if err != nil {
			return wrapProposalErr(err)
		}
		if err := stored.CanVote(voter.Address, now); err != nil {
			return err
		}
		if err := s.members.RecordVote(ctx, voter.Address); err != nil {
			return err
		}
		updated, err := s.proposals.Execute(ctx, proposalID,
			func(p *models.Proposal) error { return p.CanVote(voter.Address, now) },
			func(p *models.Proposal) { p.ApplyVote(voter.Address, support, eligible) },
		)
		if err != nil {
			return wrapProposalErr(err)
		}
		proposal = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "proposal vote recorded",
		"proposal_id", proposalID,
		"support", support,
		"votes_for", proposal.VotesFor,
		"votes_against", proposal.VotesAgainst,
		"status", proposal.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
	event := audit.NewEvent(ctx, audit.EventProposalVoted, subject(proposalID))
	event.Decision = strconv.FormatBool(support)
	s.emit(ctx, event)
	if s.metrics != nil {
		s.metrics.IncrementVote()
	}
	return proposal, nil
}

// Execute applies a Passed proposal. A failing mutation leaves the proposal
// Passed so it can be retried.
func (s *Service) Execute(ctx context.Context, proposalID id.ProposalID) (proposal *models.Proposal, err error) {
	ctx, span := tracing.Start(ctx, tracer, "governance.Execute", attribute.String("proposal_id", proposalID.String()))
	defer func() { tracing.End(span, err) }()

	var (
		action       string
		proposalType models.Type
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		if _, err := s.members.RequireVotingMember(ctx, requestcontext.Caller(ctx)); err != nil {
			return err
		}
		stored, err := s.proposals.FindByID(ctx, proposalID)
		if err != nil {
			return wrapProposalErr(err)
		}
		proposalType = stored.Type
		current := settled(ctx, stored)
		if err := current.CanExecute(); err != nil {
			return err
		}
		payload, err := models.DecodePayload(current.Type, current.ExecutionData)
		if err != nil {
			return err
		}
		action = payload.ActionName()

		execCtx := requestcontext.WithProposalExecution(ctx, proposalID)
		if err := s.dispatch(execCtx, payload); err != nil {
			return err
		}

		updated, err := s.proposals.Execute(ctx, proposalID,
			func(p *models.Proposal) error {
				*p = models.Settle(*p, now)
				return p.CanExecute()
			},
			func(p *models.Proposal) { p.ApplyExecution(now) },
		)
		if err != nil {
			return wrapProposalErr(err)
		}
		proposal = updated
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "proposal execution failed",
			"proposal_id", proposalID,
			"action", action,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		if s.metrics != nil && proposalType != "" {
			s.metrics.IncrementExecution(string(proposalType), "failed")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "proposal executed",
		"proposal_id", proposalID,
		"proposal_type", proposal.Type,
		"action", action,
		"request_id", requestcontext.RequestID(ctx),
	)
	event := audit.NewEvent(ctx, audit.EventProposalExecuted, subject(proposalID))
	event.ProposalID = proposalID.String()
	event.Decision = action
	s.emit(ctx, event)
	if s.metrics != nil {
		s.metrics.IncrementExecution(string(proposal.Type), "executed")
	}
	return proposal, nil
}

// Get returns the proposal settled against the request clock.
func (s *Service) Get(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	stored, err := s.proposals.FindByID(ctx, proposalID)
	if err != nil {
		return nil, wrapProposalErr(err)
	}
	return settled(ctx, stored), nil
}

// List returns settled proposals, filtered by status when one is given.
func (s *Service) List(ctx context.Context, status models.Status) ([]*models.Proposal, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown proposal status")
	}
	stored, err := s.proposals.List(ctx)
	if err != nil {
		return nil, wrapProposalErr(err)
	}
	out := make([]*models.Proposal, 0, len(stored))
	for _, p := range stored {
		current := settled(ctx, p)
		if status == "" || current.Status == status {
			out = append(out, current)
		}
	}
	return out, nil
}
