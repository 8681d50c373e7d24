package audit

import (
	"context"
	"time"

	id "villageinsure/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so stores can
// route them to different retention tiers.
type EventCategory string

const (
	// CategoryLedger covers every movement of money through the safety pool.
	CategoryLedger EventCategory = "ledger"

	// CategoryGovernance covers proposals, votes and privileged mutations.
	CategoryGovernance EventCategory = "governance"

	// CategoryMembership covers registry and subscription lifecycle changes.
	CategoryMembership EventCategory = "membership"
)

// Event is emitted from domain logic after a mutation commits. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Actor is the wallet that triggered the action. Empty for bootstrap and
	// system-initiated changes.
	Actor id.Address
	// Subject identifies the affected aggregate, e.g. "claim:<uuid>".
	Subject  string
	Action   string
	Decision string
	Reason   string
	// Amount is a decimal string for ledger events.
	Amount    string
	RequestID string
	// ProposalID is set when the mutation ran as part of a proposal execution.
	ProposalID string
}

type AuditEvent string

const (
	// Registry events
	EventUserRegistered     AuditEvent = "user_registered"
	EventUserActivated      AuditEvent = "user_activated"
	EventUserBanned         AuditEvent = "user_banned"
	EventCreditAdjusted     AuditEvent = "credit_adjusted"
	EventReputationAdjusted AuditEvent = "reputation_adjusted"
	EventDAOMembershipSet   AuditEvent = "dao_membership_set"

	// Catalog events
	EventPolicyProposed  AuditEvent = "policy_proposed"
	EventPolicyActivated AuditEvent = "policy_activated"
	EventPolicyArchived  AuditEvent = "policy_archived"
	EventPolicyDeleted   AuditEvent = "policy_deleted"

	// Subscription events
	EventSubscribed            AuditEvent = "subscribed"
	EventPremiumPaid           AuditEvent = "premium_paid"
	EventSubscriptionCancelled AuditEvent = "subscription_cancelled"

	// Claim events
	EventClaimSubmitted AuditEvent = "claim_submitted"
	EventClaimVoted     AuditEvent = "claim_voted"
	EventClaimApproved  AuditEvent = "claim_approved"
	EventClaimRejected  AuditEvent = "claim_rejected"
	EventClaimPaid      AuditEvent = "claim_paid"

	// Governance events
	EventProposalCreated  AuditEvent = "proposal_created"
	EventProposalVoted    AuditEvent = "proposal_voted"
	EventProposalExecuted AuditEvent = "proposal_executed"
	EventRulesUpdated     AuditEvent = "rules_updated"

	// Pool events
	EventExternalFunding     AuditEvent = "external_funding"
	EventReserveWithdrawn    AuditEvent = "reserve_withdrawn"
	EventInvestmentDeposited AuditEvent = "investment_deposited"
	EventInvestmentWithdrawn AuditEvent = "investment_withdrawn"
	EventPoolAudited         AuditEvent = "pool_audited"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventPremiumPaid:         CategoryLedger,
	EventClaimPaid:           CategoryLedger,
	EventExternalFunding:     CategoryLedger,
	EventReserveWithdrawn:    CategoryLedger,
	EventInvestmentDeposited: CategoryLedger,
	EventInvestmentWithdrawn: CategoryLedger,
	EventPoolAudited:         CategoryLedger,

	EventDAOMembershipSet: CategoryGovernance,
	EventPolicyProposed:   CategoryGovernance,
	EventPolicyActivated:  CategoryGovernance,
	EventPolicyArchived:   CategoryGovernance,
	EventPolicyDeleted:    CategoryGovernance,
	EventClaimVoted:       CategoryGovernance,
	EventClaimApproved:    CategoryGovernance,
	EventClaimRejected:    CategoryGovernance,
	EventProposalCreated:  CategoryGovernance,
	EventProposalVoted:    CategoryGovernance,
	EventProposalExecuted: CategoryGovernance,
	EventRulesUpdated:     CategoryGovernance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryMembership.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryMembership
}

//go:generate mockgen -source=models.go -destination=mocks/mocks.go -package=mocks

// Emitter is the port services publish committed mutations through.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actor id.Address) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
