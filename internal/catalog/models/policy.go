package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 4000
)

// Status is the catalog lifecycle of a policy.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusArchived, StatusDeleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the catalog allows s -> target.
// Archived and Deleted are terminal.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusActive || target == StatusArchived || target == StatusDeleted
	case StatusActive:
		return target == StatusArchived || target == StatusDeleted
	}
	return false
}

// Params are the coverage terms of a policy.
type Params struct {
	MaxClaimAmount decimal.Decimal `json:"max_claim_amount"`
	// InterestRateBps is the yearly rate paid to investors, in basis points.
	InterestRateBps     int             `json:"interest_rate"`
	PremiumAmount       decimal.Decimal `json:"premium_amount"`
	ClaimCooldownDays   int             `json:"claim_cooldown_days"`
	InvestorLockInDays  int             `json:"investor_lock_in_days"`
	RequiresDAOApproval bool            `json:"requires_dao_approval"`
	CreditSlashOnReject int             `json:"credit_slash_on_reject"`
}

// Validate enforces the coverage term ranges.
func (p Params) Validate() error {
	switch {
	case !p.MaxClaimAmount.IsPositive():
		return dErrors.New(dErrors.CodeValidation, "max_claim_amount must be positive")
	case !p.PremiumAmount.IsPositive():
		return dErrors.New(dErrors.CodeValidation, "premium_amount must be positive")
	case p.InterestRateBps < 0 || p.InterestRateBps > id.BasisPoints:
		return dErrors.New(dErrors.CodeValidation, "interest_rate must be within [0,10000] basis points")
	case p.ClaimCooldownDays < 0:
		return dErrors.New(dErrors.CodeValidation, "claim_cooldown_days must not be negative")
	case p.InvestorLockInDays < 0:
		return dErrors.New(dErrors.CodeValidation, "investor_lock_in_days must not be negative")
	case p.CreditSlashOnReject < 0:
		return dErrors.New(dErrors.CodeValidation, "credit_slash_on_reject must not be negative")
	}
	return nil
}

// ClaimCooldown returns the cooldown as a duration.
func (p Params) ClaimCooldown() time.Duration {
	return time.Duration(p.ClaimCooldownDays) * 24 * time.Hour
}

// InvestorLockIn returns the investor lock-in as a duration.
func (p Params) InvestorLockIn() time.Duration {
	return time.Duration(p.InvestorLockInDays) * 24 * time.Hour
}

// Policy is an insurance product template.
//
// Invariants:
//   - MaxClaimAmount and PremiumAmount are positive
//   - Only Active policies accept new subscriptions
//   - Creator is a lookup key, not an owner
type Policy struct {
	ID          id.PolicyID `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Params
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	Creator   id.Address `json:"creator"`
}

// NewPolicy builds a Pending policy.
func NewPolicy(policyID id.PolicyID, title, description string, params Params, creator id.Address, now time.Time) (*Policy, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, dErrors.New(dErrors.CodeValidation, "title must be 200 characters or less")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, dErrors.New(dErrors.CodeValidation, "description is too long")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Policy{
		ID:          policyID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Params:      params,
		Status:      StatusPending,
		CreatedAt:   now,
		Creator:     creator,
	}, nil
}

func (p *Policy) IsActive() bool {
	return p.Status == StatusActive
}

func (p *Policy) CanActivate() error {
	if !p.Status.CanTransitionTo(StatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "only pending policies can be activated")
	}
	return nil
}

func (p *Policy) ApplyActivation() {
	p.Status = StatusActive
}

func (p *Policy) CanArchive() error {
	if !p.Status.CanTransitionTo(StatusArchived) {
		return dErrors.New(dErrors.CodeInvariantViolation, "only active or pending policies can be archived")
	}
	return nil
}

func (p *Policy) ApplyArchive() {
	p.Status = StatusArchived
}

func (p *Policy) CanDelete() error {
	if !p.Status.CanTransitionTo(StatusDeleted) {
		return dErrors.New(dErrors.CodeInvariantViolation, "only active or pending policies can be deleted")
	}
	return nil
}

func (p *Policy) ApplyDelete() {
	p.Status = StatusDeleted
}

// Clone returns a copy. Params holds only values.
func (p *Policy) Clone() *Policy {
	c := *p
	return &c
}
