package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "villageinsure/pkg/domain"
)

// Week is the premium cadence.
const Week = 7 * 24 * time.Hour

// Status is derived from the payment deficit, except Cancelled which is only
// reached through an explicit cancel.
type Status string

const (
	StatusActive      Status = "active"
	StatusGracePeriod Status = "grace_period"
	StatusSuspended   Status = "suspended"
	StatusCancelled   Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusGracePeriod, StatusSuspended, StatusCancelled:
		return true
	}
	return false
}

// Subscription is a user's enrollment in a policy.
//
// Invariants:
//   - WeeksPaid <= WeeksDue
//   - WeeksDue only grows, by whole weeks elapsed since StartDate
//   - Status is DeriveStatus(WeeksDue, WeeksPaid, grace) unless Cancelled
type Subscription struct {
	ID                id.SubscriptionID `json:"id"`
	PolicyID          id.PolicyID       `json:"policy_id"`
	Subscriber        id.Address        `json:"subscriber"`
	StartDate         time.Time         `json:"start_date"`
	Status            Status            `json:"status"`
	LastPaymentDate   *time.Time        `json:"last_payment_date,omitempty"`
	NextPaymentDue    time.Time         `json:"next_payment_due"`
	WeeksPaid         int               `json:"weeks_paid"`
	WeeksDue          int               `json:"weeks_due"`
	TotalPremiumsPaid decimal.Decimal   `json:"total_premiums_paid"`
	CancelledAt       *time.Time        `json:"cancelled_at,omitempty"`
}

// NewSubscription enrolls subscriber in policyID at now.
func NewSubscription(subID id.SubscriptionID, policyID id.PolicyID, subscriber id.Address, now time.Time) *Subscription {
	return &Subscription{
		ID:                subID,
		PolicyID:          policyID,
		Subscriber:        subscriber,
		StartDate:         now,
		Status:            StatusActive,
		NextPaymentDue:    now.Add(Week),
		TotalPremiumsPaid: decimal.Zero,
	}
}

// WeeksElapsed returns the number of whole weeks between start and now.
func WeeksElapsed(start, now time.Time) int {
	if !now.After(start) {
		return 0
	}
	return int(now.Sub(start) / Week)
}

// DeriveStatus maps a payment deficit onto a status.
func DeriveStatus(weeksDue, weeksPaid, graceWeeks int) Status {
	return statusForDeficit(weeksDue-weeksPaid, graceWeeks)
}

func statusForDeficit(deficit, graceWeeks int) Status {
	switch {
	case deficit <= 0:
		return StatusActive
	case deficit <= graceWeeks:
		return StatusGracePeriod
	default:
		return StatusSuspended
	}
}

// RecomputeDue returns a copy of sub brought current to now. A cancelled
// subscription stops accruing weeks at its cancellation time.
func RecomputeDue(sub Subscription, now time.Time, graceWeeks int) Subscription {
	until := now
	if sub.CancelledAt != nil && sub.CancelledAt.Before(until) {
		until = *sub.CancelledAt
	}
	if due := WeeksElapsed(sub.StartDate, until); due > sub.WeeksDue {
		sub.WeeksDue = due
	}
	sub.NextPaymentDue = sub.StartDate.Add(time.Duration(sub.WeeksPaid+1) * Week)
	if sub.Status != StatusCancelled {
		sub.Status = statusForDeficit(sub.Deficit(), graceWeeks)
	}
	return sub
}

// Deficit returns the number of unpaid weeks.
func (s *Subscription) Deficit() int {
	return s.WeeksDue - s.WeeksPaid
}

// IsEligibleForClaims reports whether claims may be filed.
func (s *Subscription) IsEligibleForClaims() bool {
	return s.Status == StatusActive || s.Status == StatusGracePeriod
}

// IsLate reports whether a payment now carries the late penalty.
func (s *Subscription) IsLate() bool {
	return s.Status == StatusGracePeriod || s.Status == StatusSuspended
}

// CanPay must be called on a recomputed subscription.
func (s *Subscription) CanPay() error {
	if s.Status == StatusCancelled {
		return ErrSubscriptionCancelled
	}
	if s.Deficit() <= 0 {
		return ErrNoPremiumDue
	}
	return nil
}

// ApplyPayment settles one outstanding week and re-derives the status.
func (s *Subscription) ApplyPayment(premium decimal.Decimal, now time.Time, graceWeeks int) {
	s.WeeksPaid++
	s.TotalPremiumsPaid = s.TotalPremiumsPaid.Add(premium)
	paidAt := now
	s.LastPaymentDate = &paidAt
	s.NextPaymentDue = s.StartDate.Add(time.Duration(s.WeeksPaid+1) * Week)
	s.Status = statusForDeficit(s.Deficit(), graceWeeks)
}

func (s *Subscription) CanCancel() error {
	if s.Status == StatusCancelled {
		return ErrSubscriptionCancelled
	}
	return nil
}

func (s *Subscription) ApplyCancel(now time.Time) {
	s.Status = StatusCancelled
	at := now
	s.CancelledAt = &at
}

// IsOpen reports whether the subscription still counts against AlreadySubscribed.
func (s *Subscription) IsOpen() bool {
	return s.Status != StatusCancelled
}

// Clone returns a deep copy.
func (s *Subscription) Clone() *Subscription {
	c := *s
	if s.LastPaymentDate != nil {
		t := *s.LastPaymentDate
		c.LastPaymentDate = &t
	}
	if s.CancelledAt != nil {
		t := *s.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

// Payment records one successful premium payment.
type Payment struct {
	ID             id.PaymentID      `json:"id"`
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	Subscriber     id.Address        `json:"user"`
	PolicyID       id.PolicyID       `json:"policy_id"`
	Amount         decimal.Decimal   `json:"amount"`
	Penalty        decimal.Decimal   `json:"penalty"`
	WeekNumber     int               `json:"week_number"`
	PaymentDate    time.Time         `json:"payment_date"`
	PenaltyApplied bool              `json:"penalty_applied"`
}

// Total is the premium plus any penalty.
func (p Payment) Total() decimal.Decimal {
	return p.Amount.Add(p.Penalty)
}
