package models

import (
	"strings"

	"github.com/shopspring/decimal"

	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
)

// ProposeRequest is the body of POST /policies and of a PlanManagement
// "create" payload. Amounts are decimal strings.
type ProposeRequest struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	MaxClaimAmount      string `json:"max_claim_amount"`
	InterestRate        int    `json:"interest_rate"`
	PremiumAmount       string `json:"premium_amount"`
	ClaimCooldownDays   int    `json:"claim_cooldown_days"`
	InvestorLockInDays  int    `json:"investor_lock_in_days"`
	RequiresDAOApproval bool   `json:"requires_dao_approval"`
	CreditSlashOnReject int    `json:"credit_slash_on_reject"`

	params Params
}

func (r *ProposeRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.MaxClaimAmount = strings.TrimSpace(r.MaxClaimAmount)
	r.PremiumAmount = strings.TrimSpace(r.PremiumAmount)
}

func (r *ProposeRequest) Validate() error {
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	maxClaim, err := parseAmount("max_claim_amount", r.MaxClaimAmount)
	if err != nil {
		return err
	}
	premium, err := parseAmount("premium_amount", r.PremiumAmount)
	if err != nil {
		return err
	}
	params := Params{
		MaxClaimAmount:      maxClaim,
		InterestRateBps:     r.InterestRate,
		PremiumAmount:       premium,
		ClaimCooldownDays:   r.ClaimCooldownDays,
		InvestorLockInDays:  r.InvestorLockInDays,
		RequiresDAOApproval: r.RequiresDAOApproval,
		CreditSlashOnReject: r.CreditSlashOnReject,
	}
	if err := params.Validate(); err != nil {
		return err
	}
	r.params = params
	return nil
}

// Params returns the parsed coverage terms. Valid only after Validate.
func (r *ProposeRequest) Params() Params {
	return r.params
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := id.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, dErrors.New(dErrors.CodeValidation, field+" must be a positive decimal amount")
	}
	return d, nil
}
