// Package rules holds the platform-wide tunables shared by every ledger module.
// They are loaded from configuration at startup and change only through an
// executed governance proposal.
package rules

import (
	"sync"
	"time"

	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
)

// Rules are the platform configuration values.
type Rules struct {
	// GracePeriodWeeks is how many unpaid weeks a subscription tolerates before suspension.
	GracePeriodWeeks int
	// MinimumQuorum is the vote count a proposal needs to be decided.
	MinimumQuorum    int
	ProposalDuration time.Duration
	// PenaltyRateBps is charged on top of the premium when paying late.
	PenaltyRateBps int64
	// CouncilSize caps DAO membership. Zero means unlimited.
	CouncilSize int
	// MaxClaimAmountRatioBps caps a single payout relative to the pool balance.
	MaxClaimAmountRatioBps int64
	RequireMemberApproval  bool
	InitialCreditScore     int
	CreditRewardOnPayout   int
	// ClaimQuorum is the number of claim votes needed before a tally can resolve.
	ClaimQuorum int
}

// Defaults returns the rules used when no configuration overrides them.
func Defaults() Rules {
	return Rules{
		GracePeriodWeeks:       2,
		MinimumQuorum:          3,
		ProposalDuration:       7 * 24 * time.Hour,
		PenaltyRateBps:         0,
		CouncilSize:            0,
		MaxClaimAmountRatioBps: id.BasisPoints,
		RequireMemberApproval:  false,
		InitialCreditScore:     0,
		CreditRewardOnPayout:   0,
		ClaimQuorum:            3,
	}
}

// Validate reports the first out-of-range value.
func (r Rules) Validate() error {
	switch {
	case r.GracePeriodWeeks < 0:
		return dErrors.New(dErrors.CodeValidation, "grace_period_weeks must not be negative")
	case r.MinimumQuorum < 1:
		return dErrors.New(dErrors.CodeValidation, "minimum_quorum must be at least 1")
	case r.ProposalDuration <= 0:
		return dErrors.New(dErrors.CodeValidation, "proposal_duration must be positive")
	case r.PenaltyRateBps < 0 || r.PenaltyRateBps > id.BasisPoints:
		return dErrors.New(dErrors.CodeValidation, "penalty_rate_bps must be within [0,10000]")
	case r.CouncilSize < 0:
		return dErrors.New(dErrors.CodeValidation, "council_size must not be negative")
	case r.MaxClaimAmountRatioBps < 1 || r.MaxClaimAmountRatioBps > id.BasisPoints:
		return dErrors.New(dErrors.CodeValidation, "max_claim_amount_ratio_bps must be within [1,10000]")
	case r.InitialCreditScore < 0 || r.InitialCreditScore > 100:
		return dErrors.New(dErrors.CodeValidation, "initial_credit_score must be within [0,100]")
	case r.CreditRewardOnPayout < 0 || r.CreditRewardOnPayout > 100:
		return dErrors.New(dErrors.CodeValidation, "credit_reward_on_payout must be within [0,100]")
	case r.ClaimQuorum < 1:
		return dErrors.New(dErrors.CodeValidation, "claim_quorum must be at least 1")
	}
	return nil
}

// Patch is a partial update. Nil fields keep their current value.
type Patch struct {
	GracePeriodWeeks       *int    `json:"grace_period_weeks,omitempty"`
	MinimumQuorum          *int    `json:"minimum_quorum,omitempty"`
	ProposalDuration       *string `json:"proposal_duration,omitempty"`
	PenaltyRateBps         *int64  `json:"penalty_rate_bps,omitempty"`
	CouncilSize            *int    `json:"council_size,omitempty"`
	MaxClaimAmountRatioBps *int64  `json:"max_claim_amount_ratio_bps,omitempty"`
	RequireMemberApproval  *bool   `json:"require_member_approval,omitempty"`
	InitialCreditScore     *int    `json:"initial_credit_score,omitempty"`
	CreditRewardOnPayout   *int    `json:"credit_reward_on_payout,omitempty"`
	ClaimQuorum            *int    `json:"claim_quorum,omitempty"`
}

// Apply returns r with the patch applied and validated. r is not modified.
func (r Rules) Apply(p Patch) (Rules, error) {
	out := r
	if p.GracePeriodWeeks != nil {
		out.GracePeriodWeeks = *p.GracePeriodWeeks
	}
	if p.MinimumQuorum != nil {
		out.MinimumQuorum = *p.MinimumQuorum
	}
	if p.ProposalDuration != nil {
		d, err := time.ParseDuration(*p.ProposalDuration)
		if err != nil {
			return r, dErrors.Wrap(err, dErrors.CodeValidation, "proposal_duration is not a duration")
		}
		out.ProposalDuration = d
	}
	if p.PenaltyRateBps != nil {
		out.PenaltyRateBps = *p.PenaltyRateBps
	}
	if p.CouncilSize != nil {
		out.CouncilSize = *p.CouncilSize
	}
	if p.MaxClaimAmountRatioBps != nil {
		out.MaxClaimAmountRatioBps = *p.MaxClaimAmountRatioBps
	}
	if p.RequireMemberApproval != nil {
		out.RequireMemberApproval = *p.RequireMemberApproval
	}
	if p.InitialCreditScore != nil {
		out.InitialCreditScore = *p.InitialCreditScore
	}
	if p.CreditRewardOnPayout != nil {
		out.CreditRewardOnPayout = *p.CreditRewardOnPayout
	}
	if p.ClaimQuorum != nil {
		out.ClaimQuorum = *p.ClaimQuorum
	}
	if err := out.Validate(); err != nil {
		return r, err
	}
	return out, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Store is the process-wide holder for the current rules.
type Store struct {
	mu    sync.RWMutex
	rules Rules
}

func NewStore(initial Rules) *Store {
	return &Store{rules: initial}
}

// Current returns a copy of the active rules.
func (s *Store) Current() Rules {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

// Update applies p atomically and returns the new rules.
func (s *Store) Update(p Patch) (Rules, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.rules.Apply(p)
	if err != nil {
		return s.rules, err
	}
	s.rules = next
	return next, nil
}
