package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "villageinsure/pkg/domain"
)

const daysPerYear = 365

type InvestmentStatus string

const (
	InvestmentLocked    InvestmentStatus = "locked"
	InvestmentWithdrawn InvestmentStatus = "withdrawn"
)

// Investment is capital an investor places in the pool against a policy's
// interest rate and lock-in.
type Investment struct {
	ID              id.InvestmentID  `json:"id"`
	Investor        id.Address       `json:"investor"`
	PolicyID        id.PolicyID      `json:"policy_id"`
	Principal       decimal.Decimal  `json:"principal"`
	InterestRateBps int              `json:"interest_rate_bps"`
	DepositedAt     time.Time        `json:"deposited_at"`
	UnlocksAt       time.Time        `json:"unlocks_at"`
	Status          InvestmentStatus `json:"status"`
	Payout          decimal.Decimal  `json:"payout"`
	WithdrawnAt     *time.Time       `json:"withdrawn_at,omitempty"`
}

func NewInvestment(invID id.InvestmentID, investor id.Address, policyID id.PolicyID, principal decimal.Decimal, rateBps int, lockIn time.Duration, now time.Time) *Investment {
	return &Investment{
		ID:              invID,
		Investor:        investor,
		PolicyID:        policyID,
		Principal:       principal,
		InterestRateBps: rateBps,
		DepositedAt:     now,
		UnlocksAt:       now.Add(lockIn),
		Status:          InvestmentLocked,
		Payout:          decimal.Zero,
	}
}

// Interest is simple interest on whole days held:
// principal * bps * days / 365 / 10000, rounded to cents.
func (i *Investment) Interest(now time.Time) decimal.Decimal {
	if !now.After(i.DepositedAt) {
		return decimal.Zero
	}
	days := int64(now.Sub(i.DepositedAt) / (24 * time.Hour))
	return i.Principal.
		Mul(decimal.NewFromInt(int64(i.InterestRateBps))).
		Mul(decimal.NewFromInt(days)).
		Div(decimal.NewFromInt(daysPerYear * id.BasisPoints)).
		Round(2)
}

// PayoutAt is principal plus interest at now.
func (i *Investment) PayoutAt(now time.Time) decimal.Decimal {
	return i.Principal.Add(i.Interest(now))
}

func (i *Investment) CanWithdraw(now time.Time) error {
	if i.Status == InvestmentWithdrawn {
		return ErrInvestmentWithdrawn
	}
	if now.Before(i.UnlocksAt) {
		return ErrInvestmentLocked
	}
	return nil
}

func (i *Investment) ApplyWithdrawal(payout decimal.Decimal, now time.Time) {
	i.Status = InvestmentWithdrawn
	i.Payout = payout
	at := now
	i.WithdrawnAt = &at
}

func (i *Investment) Clone() *Investment {
	c := *i
	if i.WithdrawnAt != nil {
		t := *i.WithdrawnAt
		c.WithdrawnAt = &t
	}
	return &c
}
