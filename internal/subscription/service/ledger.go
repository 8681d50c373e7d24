package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"villageinsure/internal/subscription/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/tracing"
	"villageinsure/pkg/requestcontext"
)

// Subscribe enrolls the caller in an Active policy. No money moves until the
// first premium is paid.
func (s *Service) Subscribe(ctx context.Context, policyID id.PolicyID) (sub *models.Subscription, err error) {
	ctx, span := tracing.Start(ctx, tracer, "subscription.Subscribe", attribute.String("policy_id", policyID.String()))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.members.RequireActive(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		if _, err := s.policies.RequireActive(ctx, policyID); err != nil {
			return err
		}
		existing, err := s.subscriptions.ListBySubscriber(ctx, user.Address)
		if err != nil {
			return wrapSubscriptionErr(err)
		}
		for _, e := range existing {
			if e.PolicyID == policyID && e.IsOpen() {
				return models.ErrAlreadySubscribed
			}
		}

		created := models.NewSubscription(id.SubscriptionID(uuid.New()), policyID, user.Address, requestcontext.Now(ctx))
		if err := s.subscriptions.Create(ctx, created); err != nil {
			return wrapSubscriptionErr(err)
		}
		sub = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "subscribed",
		"subscription_id", sub.ID,
		"policy_id", policyID,
		"subscriber", sub.Subscriber,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.NewEvent(ctx, audit.EventSubscribed, subject(sub.ID)))
	if s.metrics != nil {
		s.metrics.IncrementEvent("subscribed")
	}
	return sub, nil
}

// PayPremium settles exactly one outstanding week. A late payment also pays
// the penalty; both are credited to the pool in the same transaction.
func (s *Service) PayPremium(ctx context.Context, subID id.SubscriptionID) (sub *models.Subscription, err error) {
	ctx, span := tracing.Start(ctx, tracer, "subscription.PayPremium", attribute.String("subscription_id", subID.String()))
	defer func() { tracing.End(span, err) }()

	var payment models.Payment
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		r := s.rules.Current()

		stored, err := s.subscriptions.FindByID(ctx, subID)
		if err != nil {
			return wrapSubscriptionErr(err)
		}
		if stored.Subscriber != requestcontext.Caller(ctx) {
			return models.ErrNotSubscriber
		}
		current := s.current(ctx, stored)
		if err := current.CanPay(); err != nil {
			return err
		}
		policy, err := s.policies.Get(ctx, current.PolicyID)
		if err != nil {
			return err
		}

		premium := policy.PremiumAmount
		penalty := decimal.Zero
		if current.IsLate() && r.PenaltyRateBps > 0 {
			penalty = id.ApplyBasisPoints(premium, int(r.PenaltyRateBps))
		}
		if err := s.pool.CreditPremium(ctx, premium.Add(penalty)); err != nil {
			return err
		}

		updated, err := s.subscriptions.Execute(ctx, subID,
			func(stored *models.Subscription) error {
				*stored = models.RecomputeDue(*stored, now, r.GracePeriodWeeks)
				return stored.CanPay()
			},
			func(stored *models.Subscription) { stored.ApplyPayment(premium, now, r.GracePeriodWeeks) },
		)
		if err != nil {
			return wrapSubscriptionErr(err)
		}

		payment = models.Payment{
			ID:             id.PaymentID(uuid.New()),
			SubscriptionID: subID,
			Subscriber:     updated.Subscriber,
			PolicyID:       updated.PolicyID,
			Amount:         premium,
			Penalty:        penalty,
			WeekNumber:     updated.WeeksPaid,
			PaymentDate:    now,
			PenaltyApplied: penalty.IsPositive(),
		}
		if err := s.subscriptions.AppendPayment(ctx, payment); err != nil {
			return wrapSubscriptionErr(err)
		}
		sub = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "premium paid",
		"subscription_id", subID,
		"week", payment.WeekNumber,
		"amount", payment.Amount.String(),
		"penalty", payment.Penalty.String(),
		"status", sub.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
	event := audit.NewEvent(ctx, audit.EventPremiumPaid, subject(subID))
	event.Amount = payment.Total().String()
	s.emit(ctx, event)
	if s.metrics != nil {
		s.metrics.ObservePayment(payment.Total().InexactFloat64(), payment.PenaltyApplied)
	}
	return sub, nil
}

// Cancel terminates the subscription. There is no refund.
func (s *Service) Cancel(ctx context.Context, subID id.SubscriptionID) (sub *models.Subscription, err error) {
	ctx, span := tracing.Start(ctx, tracer, "subscription.Cancel", attribute.String("subscription_id", subID.String()))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		grace := s.rules.Current().GracePeriodWeeks
		caller := requestcontext.Caller(ctx)
		updated, err := s.subscriptions.Execute(ctx, subID,
			func(stored *models.Subscription) error {
				if stored.Subscriber != caller {
					return models.ErrNotSubscriber
				}
				*stored = models.RecomputeDue(*stored, now, grace)
				return stored.CanCancel()
			},
			func(stored *models.Subscription) { stored.ApplyCancel(now) },
		)
		if err != nil {
			return wrapSubscriptionErr(err)
		}
		sub = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "subscription cancelled",
		"subscription_id", subID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.NewEvent(ctx, audit.EventSubscriptionCancelled, subject(subID)))
	if s.metrics != nil {
		s.metrics.IncrementEvent("cancelled")
	}
	return sub, nil
}

// Get returns the subscription brought current to the request clock.
func (s *Service) Get(ctx context.Context, subID id.SubscriptionID) (*models.Subscription, error) {
	stored, err := s.subscriptions.FindByID(ctx, subID)
	if err != nil {
		return nil, wrapSubscriptionErr(err)
	}
	return s.current(ctx, stored), nil
}

// ListByUser returns a subscriber's subscriptions, each brought current.
func (s *Service) ListByUser(ctx context.Context, subscriber id.Address) ([]*models.Subscription, error) {
	stored, err := s.subscriptions.ListBySubscriber(ctx, subscriber)
	if err != nil {
		return nil, wrapSubscriptionErr(err)
	}
	out := make([]*models.Subscription, len(stored))
	for i, sub := range stored {
		out[i] = s.current(ctx, sub)
	}
	return out, nil
}

// ListPayments returns the payment history of a subscription.
func (s *Service) ListPayments(ctx context.Context, subID id.SubscriptionID) ([]models.Payment, error) {
	if _, err := s.subscriptions.FindByID(ctx, subID); err != nil {
		return nil, wrapSubscriptionErr(err)
	}
	payments, err := s.subscriptions.ListPayments(ctx, subID)
	if err != nil {
		return nil, wrapSubscriptionErr(err)
	}
	return payments, nil
}
