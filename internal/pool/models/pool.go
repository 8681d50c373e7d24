package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
)

// SafetyPool is the process-wide shared ledger.
//
// Invariants:
//   - TotalBalance == PremiumContributions + InvestmentReturns - ClaimPayouts
//   - ReserveRatioBps is recomputed after every mutation
//   - Payouts and withdrawals never take TotalBalance below MinimumReserve
type SafetyPool struct {
	TotalBalance         decimal.Decimal `json:"total_balance"`
	PremiumContributions decimal.Decimal `json:"premium_contributions"`
	ClaimPayouts         decimal.Decimal `json:"claim_payouts"`
	// InvestmentReturns is the net investment flow. Interest paid to investors
	// and reserve withdrawals debit it, so it can go negative.
	InvestmentReturns    decimal.Decimal `json:"investment_returns"`
	ReserveRatioBps      int64           `json:"reserve_ratio"`
	MinimumReserve       decimal.Decimal `json:"minimum_reserve"`
	LastAuditDate        *time.Time      `json:"last_audit_date,omitempty"`
}

// NewSafetyPool returns an empty pool with the given reserve floor.
func NewSafetyPool(minimumReserve decimal.Decimal) *SafetyPool {
	return &SafetyPool{
		TotalBalance:         decimal.Zero,
		PremiumContributions: decimal.Zero,
		ClaimPayouts:         decimal.Zero,
		InvestmentReturns:    decimal.Zero,
		MinimumReserve:       minimumReserve,
	}
}

// CreditPremium books premiums and late penalties.
func (p *SafetyPool) CreditPremium(amount decimal.Decimal) {
	p.PremiumContributions = p.PremiumContributions.Add(amount)
	p.TotalBalance = p.TotalBalance.Add(amount)
	p.recomputeReserveRatio()
}

// CanDebit reports whether amount can leave the pool without breaching the
// minimum reserve.
func (p *SafetyPool) CanDebit(amount decimal.Decimal) error {
	if p.TotalBalance.Sub(amount).LessThan(p.MinimumReserve) {
		return ErrInsufficientReserve
	}
	return nil
}

// CanPayClaim checks the reserve floor and the per-claim payout ratio.
func (p *SafetyPool) CanPayClaim(amount decimal.Decimal, maxRatioBps int64) error {
	if err := p.CanDebit(amount); err != nil {
		return err
	}
	if maxRatioBps < id.BasisPoints {
		limit := id.ApplyBasisPoints(p.TotalBalance, int(maxRatioBps))
		if amount.GreaterThan(limit) {
			return ErrPayoutRatioExceeded
		}
	}
	return nil
}

func (p *SafetyPool) ApplyClaimPayout(amount decimal.Decimal) {
	p.ClaimPayouts = p.ClaimPayouts.Add(amount)
	p.TotalBalance = p.TotalBalance.Sub(amount)
	p.recomputeReserveRatio()
}

// CreditInvestment books external funding and investor deposits.
func (p *SafetyPool) CreditInvestment(amount decimal.Decimal) {
	p.InvestmentReturns = p.InvestmentReturns.Add(amount)
	p.TotalBalance = p.TotalBalance.Add(amount)
	p.recomputeReserveRatio()
}

// ApplyWithdrawal books reserve and investor withdrawals against
// InvestmentReturns. An investor payout includes interest, so the debit
// exceeds what the deposit credited.
func (p *SafetyPool) ApplyWithdrawal(amount decimal.Decimal) {
	p.InvestmentReturns = p.InvestmentReturns.Sub(amount)
	p.TotalBalance = p.TotalBalance.Sub(amount)
	p.recomputeReserveRatio()
}

func (p *SafetyPool) ApplyMinimumReserve(amount decimal.Decimal) {
	p.MinimumReserve = amount
}

// CheckIdentity verifies the running ledger identity.
func (p *SafetyPool) CheckIdentity() error {
	expected := p.PremiumContributions.Add(p.InvestmentReturns).Sub(p.ClaimPayouts)
	if !expected.Equal(p.TotalBalance) {
		return dErrors.New(dErrors.CodeInvariantViolation, "ledger identity violated: total_balance "+
			p.TotalBalance.String()+" != "+expected.String())
	}
	return nil
}

func (p *SafetyPool) ApplyAudit(now time.Time) {
	at := now
	p.LastAuditDate = &at
}

func (p *SafetyPool) recomputeReserveRatio() {
	inflows := p.PremiumContributions.Add(p.InvestmentReturns)
	if !inflows.IsPositive() {
		p.ReserveRatioBps = 0
		return
	}
	p.ReserveRatioBps = p.TotalBalance.Mul(decimal.NewFromInt(id.BasisPoints)).Div(inflows).IntPart()
}

// Clone returns a deep copy.
func (p *SafetyPool) Clone() *SafetyPool {
	c := *p
	if p.LastAuditDate != nil {
		t := *p.LastAuditDate
		c.LastAuditDate = &t
	}
	return &c
}

// Summary is the dashboard view of the pool.
type Summary struct {
	TotalPremiums  decimal.Decimal `json:"total_premiums"`
	TotalClaims    decimal.Decimal `json:"total_claims"`
	NetBalance     decimal.Decimal `json:"net_balance"`
	ReservePercent decimal.Decimal `json:"reserve_percent"`
}

func (p *SafetyPool) Summary() Summary {
	return Summary{
		TotalPremiums:  p.PremiumContributions,
		TotalClaims:    p.ClaimPayouts,
		NetBalance:     p.TotalBalance,
		ReservePercent: decimal.NewFromInt(p.ReserveRatioBps).Div(decimal.NewFromInt(100)),
	}
}

// AuditReport is the result of a ledger audit.
type AuditReport struct {
	Pool     *SafetyPool `json:"pool"`
	Balanced bool        `json:"balanced"`
	// Deviation is total_balance minus the identity's expected value.
	Deviation decimal.Decimal `json:"deviation"`
}
