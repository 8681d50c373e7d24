package models

import (
	"encoding/json"
	"time"

	id "villageinsure/pkg/domain"
)

// Type selects how a proposal's execution data is interpreted.
type Type string

const (
	TypeUserApproval   Type = "user_approval"
	TypePlanManagement Type = "plan_management"
	TypeFinancial      Type = "financial"
	TypeGovernance     Type = "governance"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeUserApproval, TypePlanManagement, TypeFinancial, TypeGovernance:
		return true
	}
	return false
}

// Status is the proposal lifecycle. Passed, Rejected and Executed are never
// left except Passed -> Executed.
type Status string

const (
	StatusActive   Status = "active"
	StatusPassed   Status = "passed"
	StatusRejected Status = "rejected"
	StatusExecuted Status = "executed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPassed, StatusRejected, StatusExecuted:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusActive:
		return target == StatusPassed || target == StatusRejected
	case StatusPassed:
		return target == StatusExecuted
	}
	return false
}

// Proposal is a governance action gated by a DAO vote.
//
// Invariants:
//   - each member votes at most once, so VotesFor+VotesAgainst never exceeds
//     the number of members who were eligible
//   - Status never returns to Active
type Proposal struct {
	ID              id.ProposalID       `json:"id"`
	Proposer        id.Address          `json:"proposer"`
	Type            Type                `json:"proposal_type"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	VotingPeriodEnd time.Time           `json:"voting_period_end"`
	VotesFor        int                 `json:"votes_for"`
	VotesAgainst    int                 `json:"votes_against"`
	Status          Status              `json:"status"`
	ExecutionData   json.RawMessage     `json:"execution_data"`
	QuorumRequired  int                 `json:"quorum_required"`
	CreatedDate     time.Time           `json:"created_date"`
	ExecutedAt      *time.Time          `json:"executed_at,omitempty"`
	Voters          map[id.Address]bool `json:"voters,omitempty"`
}

// Draft is the proposer's input.
type Draft struct {
	Type          Type
	Title         string
	Description   string
	ExecutionData json.RawMessage
}

// NewProposal opens a proposal for votes until now+duration.
func NewProposal(proposalID id.ProposalID, proposer id.Address, draft Draft, quorum int, duration time.Duration, now time.Time) *Proposal {
	return &Proposal{
		ID:              proposalID,
		Proposer:        proposer,
		Type:            draft.Type,
		Title:           draft.Title,
		Description:     draft.Description,
		VotingPeriodEnd: now.Add(duration),
		Status:          StatusActive,
		ExecutionData:   draft.ExecutionData,
		QuorumRequired:  quorum,
		CreatedDate:     now,
		Voters:          make(map[id.Address]bool),
	}
}

func (p *Proposal) cast() int {
	return p.VotesFor + p.VotesAgainst
}

// Settle returns p with its status decided by the clock. Once the voting
// period has ended an Active proposal passes only when quorum was met and
// votes for strictly outnumber votes against; ties reject.
func Settle(p Proposal, now time.Time) Proposal {
	if p.Status != StatusActive || !now.After(p.VotingPeriodEnd) {
		return p
	}
	if p.cast() >= p.QuorumRequired && p.VotesFor > p.VotesAgainst {
		p.Status = StatusPassed
	} else {
		p.Status = StatusRejected
	}
	return p
}

func (p *Proposal) CanVote(voter id.Address, now time.Time) error {
	if p.Status != StatusActive {
		return ErrProposalNotActive
	}
	if now.After(p.VotingPeriodEnd) {
		return ErrVotingClosed
	}
	if p.Voters[voter] {
		return ErrAlreadyVoted
	}
	return nil
}

// ApplyVote records one member's vote and resolves the proposal early when
// the outcome can no longer change. eligible is the current voting council;
// members who voted and later left it still count in the tally but cannot
// vote again.
func (p *Proposal) ApplyVote(voter id.Address, support bool, eligible []id.Address) {
	if p.Voters == nil {
		p.Voters = make(map[id.Address]bool)
	}
	p.Voters[voter] = true
	if support {
		p.VotesFor++
	} else {
		p.VotesAgainst++
	}

	remaining := 0
	for _, addr := range eligible {
		if !p.Voters[addr] {
			remaining++
		}
	}
	switch {
	case p.cast()+remaining < p.QuorumRequired:
		p.Status = StatusRejected
	case p.cast() < p.QuorumRequired:
		// quorum still reachable
	case p.VotesFor > p.VotesAgainst+remaining:
		p.Status = StatusPassed
	case p.VotesAgainst >= p.VotesFor+remaining:
		p.Status = StatusRejected
	}
}

// CanExecute requires a Passed proposal that has not run yet.
func (p *Proposal) CanExecute() error {
	switch {
	case p.Status.CanTransitionTo(StatusExecuted):
		return nil
	case p.Status == StatusExecuted:
		return ErrAlreadyExecuted
	}
	return ErrNotPassed
}

// ApplyExecution marks a Passed proposal Executed.
func (p *Proposal) ApplyExecution(now time.Time) {
	p.Status = StatusExecuted
	p.ExecutedAt = &now
}

func (p *Proposal) Clone() *Proposal {
	out := *p
	out.ExecutionData = append(json.RawMessage(nil), p.ExecutionData...)
	if p.ExecutedAt != nil {
		t := *p.ExecutedAt
		out.ExecutedAt = &t
	}
	out.Voters = make(map[id.Address]bool, len(p.Voters))
	for k, v := range p.Voters {
		out.Voters[k] = v
	}
	return &out
}
