package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	catalogModels "villageinsure/internal/catalog/models"
	"villageinsure/internal/rules"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
)

// Action names accepted in execution data.
const (
	ActionActivate          = "activate"
	ActionBan               = "ban"
	ActionGrantDAO          = "grant_dao"
	ActionRevokeDAO         = "revoke_dao"
	ActionArchive           = "archive"
	ActionDelete            = "delete"
	ActionCreate            = "create"
	ActionExternalFunding   = "external_funding"
	ActionWithdrawReserve   = "withdraw_reserve"
	ActionSetMinimumReserve = "set_minimum_reserve"
	ActionUpdateRules       = "update_rules"
)

// Payload is decoded execution data. The concrete type follows the proposal
// type.
type Payload interface {
	ActionName() string
}

// UserApproval changes a member's standing.
type UserApproval struct {
	Action  string `json:"action"`
	Address string `json:"address"`

	address id.Address
}

func (p *UserApproval) ActionName() string { return p.Action }
func (p *UserApproval) Target() id.Address { return p.address }

// PlanManagement changes a policy, or creates one from Policy.
type PlanManagement struct {
	Action   string                        `json:"action"`
	PolicyID string                        `json:"policy_id,omitempty"`
	Policy   *catalogModels.ProposeRequest `json:"policy,omitempty"`

	policyID id.PolicyID
}

func (p *PlanManagement) ActionName() string { return p.Action }
func (p *PlanManagement) Target() id.PolicyID { return p.policyID }

// Financial moves money in or out of the safety pool, or sets its floor.
type Financial struct {
	Action  string `json:"action"`
	Amount  string `json:"amount"`
	Purpose string `json:"purpose,omitempty"`

	amount decimal.Decimal
}

func (p *Financial) ActionName() string { return p.Action }
func (p *Financial) ParsedAmount() decimal.Decimal { return p.amount }

// Governance changes platform rules.
type Governance struct {
	Action string       `json:"action"`
	Rules  *rules.Patch `json:"rules"`
}

func (p *Governance) ActionName() string { return p.Action }

// DecodePayload parses and validates raw execution data for t.
func DecodePayload(t Type, raw json.RawMessage) (Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrInvalidPayload
	}
	var p interface {
		Payload
		validate() error
	}
	switch t {
	case TypeUserApproval:
		p = &UserApproval{}
	case TypePlanManagement:
		p = &PlanManagement{}
	case TypeFinancial:
		p = &Financial{}
	case TypeGovernance:
		p = &Governance{}
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "unknown proposal type")
	}
	if err := decode(raw, p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func decode(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, ErrInvalidPayload.Message)
	}
	return nil
}

func (p *UserApproval) validate() error {
	switch p.Action {
	case ActionActivate, ActionBan, ActionGrantDAO, ActionRevokeDAO:
	default:
		return ErrUnknownAction
	}
	addr, err := id.ParseAddress(strings.TrimSpace(p.Address))
	if err != nil {
		return err
	}
	p.address = addr
	return nil
}

func (p *PlanManagement) validate() error {
	switch p.Action {
	case ActionCreate:
		if p.Policy == nil {
			return dErrors.New(dErrors.CodeValidation, "create requires a policy")
		}
		p.Policy.Normalize()
		return p.Policy.Validate()
	case ActionActivate, ActionArchive, ActionDelete:
		policyID, err := id.ParsePolicyID(strings.TrimSpace(p.PolicyID))
		if err != nil {
			return err
		}
		p.policyID = policyID
		return nil
	}
	return ErrUnknownAction
}

func (p *Financial) validate() error {
	switch p.Action {
	case ActionExternalFunding, ActionWithdrawReserve:
		amount, err := id.ParseAmount(strings.TrimSpace(p.Amount))
		if err != nil {
			return err
		}
		p.amount = amount
		return nil
	case ActionSetMinimumReserve:
		amount, err := decimal.NewFromString(strings.TrimSpace(p.Amount))
		if err != nil || amount.IsNegative() {
			return dErrors.New(dErrors.CodeValidation, "minimum reserve must be a non-negative decimal")
		}
		p.amount = amount
		return nil
	}
	return ErrUnknownAction
}

func (p *Governance) validate() error {
	if p.Action != ActionUpdateRules {
		return ErrUnknownAction
	}
	if p.Rules == nil || p.Rules.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "update_rules requires at least one rule")
	}
	return nil
}
