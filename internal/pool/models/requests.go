package models

import (
	"strings"

	"github.com/shopspring/decimal"

	id "villageinsure/pkg/domain"
)

// FundingRequest is the body of POST /pool/funding.
type FundingRequest struct {
	Amount string `json:"amount"`

	amount decimal.Decimal
}

func (r *FundingRequest) Normalize() {
	r.Amount = strings.TrimSpace(r.Amount)
}

func (r *FundingRequest) Validate() error {
	d, err := id.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.amount = d
	return nil
}

func (r *FundingRequest) ParsedAmount() decimal.Decimal {
	return r.amount
}

// DepositRequest is the body of POST /pool/investments.
type DepositRequest struct {
	PolicyID string `json:"policy_id"`
	Amount   string `json:"amount"`

	policyID id.PolicyID
	amount   decimal.Decimal
}

func (r *DepositRequest) Normalize() {
	r.PolicyID = strings.TrimSpace(r.PolicyID)
	r.Amount = strings.TrimSpace(r.Amount)
}

func (r *DepositRequest) Validate() error {
	policyID, err := id.ParsePolicyID(r.PolicyID)
	if err != nil {
		return err
	}
	amount, err := id.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.policyID = policyID
	r.amount = amount
	return nil
}

func (r *DepositRequest) ParsedPolicyID() id.PolicyID {
	return r.policyID
}

func (r *DepositRequest) ParsedAmount() decimal.Decimal {
	return r.amount
}
