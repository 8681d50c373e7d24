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
	MinCreditScore = 0
	MaxCreditScore = 100
	maxNameLength  = 64
)

// Status is the registry lifecycle of a user.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusBanned  Status = "banned"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusBanned:
		return true
	}
	return false
}

// CanTransitionTo reports whether the registry allows s -> target.
// A banned user can be reinstated only by a governance decision.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusActive || target == StatusBanned
	case StatusActive:
		return target == StatusBanned
	case StatusBanned:
		return target == StatusActive
	}
	return false
}

// User is the aggregate root for a registered wallet.
//
// Invariants:
//   - Address is unique and immutable
//   - CreditScore is always within [0,100]
//   - Only Active users may subscribe or vote
//   - A banned user is never a DAO member
type User struct {
	Address           id.Address      `json:"address"`
	Name              string          `json:"name,omitempty"`
	CreditScore       int             `json:"credit_score"`
	Status            Status          `json:"status"`
	JoinDate          time.Time       `json:"join_date"`
	IsDAOMember       bool            `json:"is_dao_member"`
	ReputationScore   int             `json:"reputation_score"`
	StakedAmount      decimal.Decimal `json:"staked_amount"`
	LastVoteTimestamp *time.Time      `json:"last_vote_timestamp,omitempty"`
}

// NewUser builds a user. New users start Pending when approval is required and
// Active otherwise.
func NewUser(addr id.Address, name string, initialCredit int, requireApproval bool, now time.Time) (*User, error) {
	if addr.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "address is required")
	}
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name must be 64 characters or less")
	}
	status := StatusActive
	if requireApproval {
		status = StatusPending
	}
	return &User{
		Address:      addr,
		Name:         name,
		CreditScore:  clampCredit(initialCredit),
		Status:       status,
		JoinDate:     now,
		StakedAmount: decimal.Zero,
	}, nil
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// IsVotingMember reports whether the user may vote on claims and proposals.
func (u *User) IsVotingMember() bool {
	return u.IsActive() && u.IsDAOMember
}

// ApplyCreditDelta moves the credit score by delta, clamped to [0,100].
// Returns the change actually applied.
func (u *User) ApplyCreditDelta(delta int) int {
	before := u.CreditScore
	u.CreditScore = clampCredit(u.CreditScore + delta)
	return u.CreditScore - before
}

// ApplyReputationDelta moves the reputation score; it never goes below zero.
func (u *User) ApplyReputationDelta(delta int) {
	u.ReputationScore += delta
	if u.ReputationScore < 0 {
		u.ReputationScore = 0
	}
}

func (u *User) CanActivate() error {
	if !u.Status.CanTransitionTo(StatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "user is already active")
	}
	return nil
}

func (u *User) ApplyActivation() {
	u.Status = StatusActive
}

func (u *User) CanBan() error {
	if !u.Status.CanTransitionTo(StatusBanned) {
		return dErrors.New(dErrors.CodeInvariantViolation, "user is already banned")
	}
	return nil
}

// ApplyBan bans the user and drops any DAO membership.
func (u *User) ApplyBan() {
	u.Status = StatusBanned
	u.IsDAOMember = false
}

// CanSetDAOMembership validates a membership change. Granting requires an
// active user; revoking requires current membership.
func (u *User) CanSetDAOMembership(member bool) error {
	if member {
		if !u.IsActive() {
			return dErrors.New(dErrors.CodeInvariantViolation, "only active users can join the DAO")
		}
		if u.IsDAOMember {
			return dErrors.New(dErrors.CodeInvariantViolation, "user is already a DAO member")
		}
		return nil
	}
	if !u.IsDAOMember {
		return dErrors.New(dErrors.CodeInvariantViolation, "user is not a DAO member")
	}
	return nil
}

func (u *User) ApplyDAOMembership(member bool) {
	u.IsDAOMember = member
}

// ApplyVote stamps the last vote time.
func (u *User) ApplyVote(now time.Time) {
	t := now
	u.LastVoteTimestamp = &t
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	c := *u
	if u.LastVoteTimestamp != nil {
		t := *u.LastVoteTimestamp
		c.LastVoteTimestamp = &t
	}
	return &c
}

func clampCredit(v int) int {
	if v < MinCreditScore {
		return MinCreditScore
	}
	if v > MaxCreditScore {
		return MaxCreditScore
	}
	return v
}
