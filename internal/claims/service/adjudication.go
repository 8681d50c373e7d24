package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"villageinsure/internal/claims/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/tracing"
	"villageinsure/pkg/requestcontext"
)

// Submit files a claim against one of the caller's subscriptions.
func (s *Service) Submit(ctx context.Context, sub models.Submission) (claim *models.Claim, err error) {
	ctx, span := tracing.Start(ctx, tracer, "claims.Submit",
		attribute.String("subscription_id", sub.SubscriptionID.String()),
		attribute.String("claim_type", string(sub.ClaimType)),
	)
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		claimer, err := s.members.RequireActive(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		subscription, err := s.subscriptions.Get(ctx, sub.SubscriptionID)
		if err != nil {
			return err
		}
		if subscription.Subscriber != claimer.Address {
			return models.ErrNotClaimer
		}
		if !subscription.IsEligibleForClaims() {
			return models.ErrSubscriptionNotEligible
		}
		policy, err := s.policies.Get(ctx, subscription.PolicyID)
		if err != nil {
			return err
		}
		if err := models.CheckCoverage(sub.Amount, policy.MaxClaimAmount); err != nil {
			return err
		}
		earlier, err := s.claims.ListBySubscription(ctx, sub.SubscriptionID)
		if err != nil {
			return wrapClaimErr(err)
		}
		if len(earlier) > 0 {
			latest := earlier[len(earlier)-1].SubmissionDate
			if err := models.CheckCooldown(&latest, policy.ClaimCooldown(), now); err != nil {
				return err
			}
		}

		created := models.NewClaim(id.ClaimID(uuid.New()), policy.ID, claimer.Address, sub, now)
		if err := s.claims.Create(ctx, created); err != nil {
			return wrapClaimErr(err)
		}
		claim = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "claim submitted",
		"claim_id", claim.ID,
		"subscription_id", claim.SubscriptionID,
		"amount", claim.Amount.String(),
		"claim_type", claim.ClaimType,
		"request_id", requestcontext.RequestID(ctx),
	)
	event := audit.NewEvent(ctx, audit.EventClaimSubmitted, subject(claim.ID))
	event.Amount = claim.Amount.String()
	s.emit(ctx, event)
	if s.metrics != nil {
		s.metrics.IncrementSubmitted()
	}
	return claim, nil
}

// claimQuorum is the configured claim quorum capped at the current council
// size, so a shrunken council can still resolve a vote.
func (s *Service) claimQuorum(ctx context.Context) (int, error) {
	council, err := s.members.CountVotingMembers(ctx)
	if err != nil {
		return 0, err
	}
	return max(min(s.rules.Current().ClaimQuorum, council), 1), nil
}

// Vote records a DAO member's decision. Once claim quorum is reached and one
// side holds a strict majority the claim resolves to Approved or Rejected. A
// vote-approved claim still needs Approve to be paid.
func (s *Service) Vote(ctx context.Context, claimID id.ClaimID, approve bool) (claim *models.Claim, err error) {
	ctx, span := tracing.Start(ctx, tracer, "claims.Vote", attribute.String("claim_id", claimID.String()))
	defer func() { tracing.End(span, err) }()

	var (
		outcome models.Status
		decided bool
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		voter, err := s.members.RequireVotingMember(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		stored, err := s.find(ctx, claimID)
		if err != nil {
			return err
		}
		if err := stored.CanVote(voter.Address); err != nil {
			return err
		}
		policy, err := s.policies.Get(ctx, stored.PolicyID)
		if err != nil {
			return err
		}

		quorum, err := s.claimQuorum(ctx)
		if err != nil {
			return err
		}
		preview := stored.Clone()
		preview.ApplyVote(voter.Address, approve)
		outcome, decided = preview.Tally(quorum)

		if err := s.members.RecordVote(ctx, voter.Address); err != nil {
			return err
		}
		if decided && outcome == models.StatusRejected {
			if err := s.slash(ctx, stored, policy); err != nil {
				return err
			}
		}

		updated, err := s.claims.Execute(ctx, claimID,
			func(c *models.Claim) error { return c.CanVote(voter.Address) },
			func(c *models.Claim) {
				c.ApplyVote(voter.Address, approve)
				if decided {
					c.ApplyVoteOutcome(outcome)
				}
			},
		)
		if err != nil {
			return wrapClaimErr(err)
		}
		claim = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "claim vote recorded",
		"claim_id", claimID,
		"approve", approve,
		"votes_for", claim.VotesFor,
		"votes_against", claim.VotesAgainst,
		"status", claim.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
	event := audit.NewEvent(ctx, audit.EventClaimVoted, subject(claimID))
	event.Decision = strconv.FormatBool(approve)
	s.emit(ctx, event)
	if s.metrics != nil {
		s.metrics.IncrementVote(approve)
	}
	if decided {
		action := audit.EventClaimApproved
		if outcome == models.StatusRejected {
			action = audit.EventClaimRejected
		}
		resolved := audit.NewEvent(ctx, action, subject(claimID))
		resolved.Decision = string(outcome)
		resolved.Reason = "vote"
		s.emit(ctx, resolved)
		s.recordOutcome(outcome, "vote")
	}
	return claim, nil
}

// Approve pays a claim out of the safety pool. The pool debit and the claim
// update commit together; a reserve failure leaves both untouched.
func (s *Service) Approve(ctx context.Context, claimID id.ClaimID) (claim *models.Claim, err error) {
	ctx, span := tracing.Start(ctx, tracer, "claims.Approve", attribute.String("claim_id", claimID.String()))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		approver, err := s.members.RequireVotingMember(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		stored, err := s.find(ctx, claimID)
		if err != nil {
			return err
		}
		policy, err := s.policies.Get(ctx, stored.PolicyID)
		if err != nil {
			return err
		}
		if err := stored.CanApprove(approver.Address, policy.RequiresDAOApproval); err != nil {
			return err
		}

		if err := s.pool.PayClaim(ctx, stored.Amount); err != nil {
			return err
		}
		updated, err := s.claims.Execute(ctx, claimID,
			func(c *models.Claim) error { return c.CanApprove(approver.Address, policy.RequiresDAOApproval) },
			func(c *models.Claim) { c.ApplyPayout(approver.Address, now) },
		)
		if err != nil {
			return wrapClaimErr(err)
		}
		if reward := s.rules.Current().CreditRewardOnPayout; reward > 0 {
			if _, err := s.members.ApplyCreditDelta(ctx, updated.Claimer, reward); err != nil {
				return err
			}
		}
		claim = updated
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "claim approval failed",
			"claim_id", claimID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "claim paid",
		"claim_id", claimID,
		"amount", claim.Amount.String(),
		"claimer", claim.Claimer,
		"request_id", requestcontext.RequestID(ctx),
	)
	event := audit.NewEvent(ctx, audit.EventClaimPaid, subject(claimID))
	event.Amount = claim.Amount.String()
	s.emit(ctx, event)
	s.recordOutcome(models.StatusPaid, "direct")
	if s.metrics != nil {
		s.metrics.ObservePayout(claim.Amount.InexactFloat64())
	}
	return claim, nil
}

// Reject closes a pending claim and applies the policy's credit slash to the
// claimer.
func (s *Service) Reject(ctx context.Context, claimID id.ClaimID, reason string) (claim *models.Claim, err error) {
	ctx, span := tracing.Start(ctx, tracer, "claims.Reject", attribute.String("claim_id", claimID.String()))
	defer func() { tracing.End(span, err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.ErrReasonRequired
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		reviewer, err := s.members.RequireVotingMember(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		stored, err := s.find(ctx, claimID)
		if err != nil {
			return err
		}
		if err := stored.CanReject(reviewer.Address); err != nil {
			return err
		}
		policy, err := s.policies.Get(ctx, stored.PolicyID)
		if err != nil {
			return err
		}
		if err := s.slash(ctx, stored, policy); err != nil {
			return err
		}
		updated, err := s.claims.Execute(ctx, claimID,
			func(c *models.Claim) error { return c.CanReject(reviewer.Address) },
			func(c *models.Claim) { c.ApplyRejection(reviewer.Address, reason) },
		)
		if err != nil {
			return wrapClaimErr(err)
		}
		claim = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "claim rejected",
		"claim_id", claimID,
		"claimer", claim.Claimer,
		"request_id", requestcontext.RequestID(ctx),
	)
	event := audit.NewEvent(ctx, audit.EventClaimRejected, subject(claimID))
	event.Decision = string(models.StatusRejected)
	event.Reason = reason
	s.emit(ctx, event)
	s.recordOutcome(models.StatusRejected, "direct")
	return claim, nil
}
