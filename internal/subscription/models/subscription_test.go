package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "villageinsure/pkg/domain"
)

var start = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return start.Add(time.Duration(n) * 24 * time.Hour)
}

func newSub() Subscription {
	return *NewSubscription(id.SubscriptionID(uuid.New()), id.PolicyID(uuid.New()), "GALICE", start)
}

func TestWeeksElapsed(t *testing.T) {
	assert.Equal(t, 0, WeeksElapsed(start, start))
	assert.Equal(t, 0, WeeksElapsed(start, day(6)))
	assert.Equal(t, 1, WeeksElapsed(start, day(7)))
	assert.Equal(t, 5, WeeksElapsed(start, day(40)))
	assert.Equal(t, 0, WeeksElapsed(start, day(-3)))
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		due, paid, grace int
		want             Status
	}{
		{0, 0, 2, StatusActive},
		{3, 3, 2, StatusActive},
		{3, 2, 2, StatusGracePeriod},
		{3, 1, 2, StatusGracePeriod},
		{3, 0, 2, StatusSuspended},
		{1, 0, 0, StatusSuspended},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveStatus(tc.due, tc.paid, tc.grace), "due=%d paid=%d grace=%d", tc.due, tc.paid, tc.grace)
	}
}

func TestPaymentCadence(t *testing.T) {
	premium := decimal.NewFromInt(50)

	t.Run("two payments at day 14 keep the subscription active", func(t *testing.T) {
		sub := RecomputeDue(newSub(), day(14), 2)
		assert.Equal(t, 2, sub.WeeksDue)
		assert.Equal(t, 2, sub.Deficit())
		assert.Equal(t, StatusGracePeriod, sub.Status)

		for i := 0; i < 2; i++ {
			require.NoError(t, sub.CanPay())
			sub.ApplyPayment(premium, day(14), 2)
		}
		assert.Equal(t, 2, sub.WeeksPaid)
		assert.Zero(t, sub.Deficit())
		assert.Equal(t, StatusActive, sub.Status)
		assert.True(t, sub.TotalPremiumsPaid.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, day(21), sub.NextPaymentDue)
		assert.ErrorIs(t, sub.CanPay(), ErrNoPremiumDue)
	})

	t.Run("forty unpaid days suspend the subscription", func(t *testing.T) {
		sub := RecomputeDue(newSub(), day(40), 2)
		assert.Equal(t, 5, sub.WeeksDue)
		assert.Equal(t, 0, sub.WeeksPaid)
		assert.Equal(t, StatusSuspended, sub.Status)
		assert.False(t, sub.IsEligibleForClaims())
		assert.True(t, sub.IsLate())
	})

	t.Run("catching up reactivates a suspended subscription", func(t *testing.T) {
		sub := RecomputeDue(newSub(), day(21), 1)
		require.Equal(t, StatusSuspended, sub.Status)
		sub.ApplyPayment(premium, day(21), 1)
		assert.Equal(t, StatusSuspended, sub.Status)
		sub.ApplyPayment(premium, day(21), 1)
		assert.Equal(t, StatusGracePeriod, sub.Status)
		sub.ApplyPayment(premium, day(21), 1)
		assert.Equal(t, StatusActive, sub.Status)
	})
}

func TestRecomputeIsPure(t *testing.T) {
	original := newSub()
	_ = RecomputeDue(original, day(30), 2)
	assert.Equal(t, 0, original.WeeksDue)
	assert.Equal(t, StatusActive, original.Status)
}

func TestCancelFreezesAccrual(t *testing.T) {
	sub := RecomputeDue(newSub(), day(8), 2)
	require.NoError(t, sub.CanCancel())
	sub.ApplyCancel(day(8))

	later := RecomputeDue(sub, day(60), 2)
	assert.Equal(t, StatusCancelled, later.Status)
	assert.Equal(t, 1, later.WeeksDue)
	assert.ErrorIs(t, later.CanCancel(), ErrSubscriptionCancelled)
	assert.ErrorIs(t, later.CanPay(), ErrSubscriptionCancelled)
	assert.False(t, later.IsOpen())
}

func TestWeeksPaidNeverExceedsWeeksDue(t *testing.T) {
	sub := newSub()
	for d := 0; d <= 120; d += 3 {
		sub = RecomputeDue(sub, day(d), 2)
		if d%2 == 0 && sub.CanPay() == nil {
			sub.ApplyPayment(decimal.NewFromInt(1), day(d), 2)
		}
		require.LessOrEqual(t, sub.WeeksPaid, sub.WeeksDue, "day %d", d)
		require.Equal(t, DeriveStatus(sub.WeeksDue, sub.WeeksPaid, 2), sub.Status, "day %d", d)
	}
}
