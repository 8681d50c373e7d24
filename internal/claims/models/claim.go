package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "villageinsure/pkg/domain"
)

// ClaimType is the kind of loss being claimed.
type ClaimType string

const (
	TypeMedical   ClaimType = "medical"
	TypeCrop      ClaimType = "crop"
	TypeLivestock ClaimType = "livestock"
	TypeProperty  ClaimType = "property"
	TypeEmergency ClaimType = "emergency"
)

func (t ClaimType) IsValid() bool {
	switch t {
	case TypeMedical, TypeCrop, TypeLivestock, TypeProperty, TypeEmergency:
		return true
	}
	return false
}

// Status is the adjudication lifecycle of a claim.
type Status string

const (
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusPaid        Status = "paid"
	StatusDisputed    Status = "disputed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected, StatusPaid, StatusDisputed:
		return true
	}
	return false
}

// CanTransitionTo reports whether adjudication allows s -> target. Disputes
// are raised outside the ledger and are terminal here.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusSubmitted:
		return target == StatusUnderReview || target == StatusApproved || target == StatusRejected
	case StatusUnderReview:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		return target == StatusPaid || target == StatusDisputed
	case StatusRejected:
		return target == StatusDisputed
	}
	return false
}

// IsPending reports whether the claim still awaits a decision.
func (s Status) IsPending() bool {
	return s == StatusSubmitted || s == StatusUnderReview
}

// Claim is a request for payout against a subscription.
//
// Invariants:
//   - Amount never exceeds the policy's max claim amount at submission
//   - Claimer is the subscription's subscriber
//   - PayoutDate is set only when Status is Paid
//   - VotesFor and VotesAgainst always match Votes
type Claim struct {
	ID             id.ClaimID          `json:"id"`
	SubscriptionID id.SubscriptionID   `json:"subscription_id"`
	PolicyID       id.PolicyID         `json:"policy_id"`
	Claimer        id.Address          `json:"claimer"`
	Amount         decimal.Decimal     `json:"amount"`
	EvidenceHash   string              `json:"evidence_hash"`
	Description    string              `json:"description"`
	ClaimType      ClaimType           `json:"claim_type"`
	Status         Status              `json:"status"`
	SubmissionDate time.Time           `json:"submission_date"`
	AssessorNotes  string              `json:"assessor_notes,omitempty"`
	PayoutDate     *time.Time          `json:"payout_date,omitempty"`
	ReviewedBy     id.Address          `json:"reviewed_by,omitempty"`
	VotesFor       int                 `json:"votes_for"`
	VotesAgainst   int                 `json:"votes_against"`
	Votes          map[id.Address]bool `json:"votes,omitempty"`
}

// Submission carries the claimant's input.
type Submission struct {
	SubscriptionID id.SubscriptionID
	Amount         decimal.Decimal
	ClaimType      ClaimType
	Description    string
	EvidenceHash   string
}

// NewClaim builds a Submitted claim. Coverage and eligibility are checked by
// the caller, which has the policy and subscription at hand.
func NewClaim(claimID id.ClaimID, policyID id.PolicyID, claimer id.Address, sub Submission, now time.Time) *Claim {
	return &Claim{
		ID:             claimID,
		SubscriptionID: sub.SubscriptionID,
		PolicyID:       policyID,
		Claimer:        claimer,
		Amount:         sub.Amount,
		EvidenceHash:   sub.EvidenceHash,
		Description:    sub.Description,
		ClaimType:      sub.ClaimType,
		Status:         StatusSubmitted,
		SubmissionDate: now,
		Votes:          make(map[id.Address]bool),
	}
}

// CheckCoverage fails when amount is above the policy limit.
func CheckCoverage(amount, maxClaimAmount decimal.Decimal) error {
	if amount.GreaterThan(maxClaimAmount) {
		return ErrAmountExceedsCoverage
	}
	return nil
}

// CheckCooldown fails when the latest claim on the subscription is more recent
// than cooldown. latest is nil when there is no earlier claim.
func CheckCooldown(latest *time.Time, cooldown time.Duration, now time.Time) error {
	if latest == nil || cooldown <= 0 {
		return nil
	}
	if now.Sub(*latest) < cooldown {
		return ErrCooldownActive
	}
	return nil
}

func (c *Claim) CanVote(voter id.Address) error {
	if voter == c.Claimer {
		return ErrSelfAdjudication
	}
	if !c.Status.IsPending() {
		return ErrNotVotingEligible
	}
	return nil
}

// ApplyVote records voter's decision and moves the claim under review. A
// member voting again replaces their earlier vote.
func (c *Claim) ApplyVote(voter id.Address, approve bool) {
	if c.Votes == nil {
		c.Votes = make(map[id.Address]bool)
	}
	c.Votes[voter] = approve
	c.VotesFor, c.VotesAgainst = 0, 0
	for _, v := range c.Votes {
		if v {
			c.VotesFor++
		} else {
			c.VotesAgainst++
		}
	}
	c.advance(StatusUnderReview)
}

// Tally resolves the vote once quorum votes are cast and one side holds a
// strict majority. ok is false while the vote is open.
func (c *Claim) Tally(quorum int) (outcome Status, ok bool) {
	if c.VotesFor+c.VotesAgainst < quorum {
		return "", false
	}
	switch {
	case c.VotesFor > c.VotesAgainst:
		return StatusApproved, true
	case c.VotesAgainst > c.VotesFor:
		return StatusRejected, true
	}
	return "", false
}

// ApplyVoteOutcome records a resolved tally.
func (c *Claim) ApplyVoteOutcome(outcome Status) {
	c.advance(outcome)
}

// CanApprove reports whether the direct approval path may pay this claim.
// Vote-approved claims can always be settled. Pending claims can be approved
// directly only when the policy does not require a DAO vote.
func (c *Claim) CanApprove(approver id.Address, requiresDAOApproval bool) error {
	if approver == c.Claimer {
		return ErrSelfAdjudication
	}
	switch {
	case c.Status == StatusApproved:
		return nil
	case !c.Status.CanTransitionTo(StatusApproved):
		return ErrNotApprovable
	case requiresDAOApproval:
		return ErrDAOApprovalRequired
	}
	return nil
}

// ApplyPayout marks the claim Paid. A pending claim paid directly is
// approved on the way.
func (c *Claim) ApplyPayout(reviewer id.Address, now time.Time) {
	if c.Status.IsPending() {
		c.advance(StatusApproved)
	}
	if !c.advance(StatusPaid) {
		return
	}
	c.PayoutDate = &now
	c.ReviewedBy = reviewer
}

func (c *Claim) CanReject(reviewer id.Address) error {
	if reviewer == c.Claimer {
		return ErrSelfAdjudication
	}
	if !c.Status.CanTransitionTo(StatusRejected) {
		return ErrNotRejectable
	}
	return nil
}

func (c *Claim) ApplyRejection(reviewer id.Address, reason string) {
	if !c.advance(StatusRejected) {
		return
	}
	c.AssessorNotes = reason
	c.ReviewedBy = reviewer
}

// advance moves the claim to target when the lifecycle allows it. Callers
// check the matching Can method first, so a refused step leaves the claim as
// it was.
func (c *Claim) advance(target Status) bool {
	if c.Status == target {
		return true
	}
	if !c.Status.CanTransitionTo(target) {
		return false
	}
	c.Status = target
	return true
}

func (c *Claim) Clone() *Claim {
	out := *c
	if c.PayoutDate != nil {
		t := *c.PayoutDate
		out.PayoutDate = &t
	}
	out.Votes = make(map[id.Address]bool, len(c.Votes))
	for k, v := range c.Votes {
		out.Votes[k] = v
	}
	return &out
}

// Statistics summarizes adjudication outcomes.
type Statistics struct {
	TotalClaims   int             `json:"total_claims"`
	PendingClaims int             `json:"pending_claims"`
	PaidClaims    int             `json:"paid_claims"`
	RejectedCount int             `json:"rejected_claims"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	// ApprovalRate is the percentage of decided claims that were approved or paid.
	ApprovalRate decimal.Decimal `json:"approval_rate"`
}

// Summarize computes Statistics over claims.
func Summarize(claims []*Claim) Statistics {
	stats := Statistics{
		TotalClaims:   len(claims),
		PaidAmount:    decimal.Zero,
		PendingAmount: decimal.Zero,
		ApprovalRate:  decimal.Zero,
	}
	approved := 0
	for _, c := range claims {
		switch {
		case c.Status.IsPending():
			stats.PendingClaims++
			stats.PendingAmount = stats.PendingAmount.Add(c.Amount)
		case c.Status == StatusPaid:
			stats.PaidClaims++
			stats.PaidAmount = stats.PaidAmount.Add(c.Amount)
			approved++
		case c.Status == StatusApproved:
			approved++
		case c.Status == StatusRejected:
			stats.RejectedCount++
		}
	}
	if decided := approved + stats.RejectedCount; decided > 0 {
		stats.ApprovalRate = decimal.NewFromInt(int64(approved * 100)).
			Div(decimal.NewFromInt(int64(decided))).
			Round(2)
	}
	return stats
}
