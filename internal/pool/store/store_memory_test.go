package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villageinsure/internal/pool/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/sentinel"
)

func TestPoolExecute(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(models.NewSafetyPool(decimal.NewFromInt(100)))

	t.Run("rejected validation leaves the pool unchanged", func(t *testing.T) {
		_, err := s.Execute(ctx,
			func(p *models.SafetyPool) error { return p.CanDebit(decimal.NewFromInt(1)) },
			func(p *models.SafetyPool) { p.ApplyClaimPayout(decimal.NewFromInt(1)) },
		)
		assert.ErrorIs(t, err, models.ErrInsufficientReserve)
		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.True(t, snap.TotalBalance.IsZero())
	})

	t.Run("snapshots are copies", func(t *testing.T) {
		_, err := s.Execute(ctx,
			func(*models.SafetyPool) error { return nil },
			func(p *models.SafetyPool) { p.CreditPremium(decimal.NewFromInt(50)) },
		)
		require.NoError(t, err)
		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		snap.TotalBalance = decimal.NewFromInt(999)
		again, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.True(t, again.TotalBalance.Equal(decimal.NewFromInt(50)))
	})
}

func TestInvestmentBook(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(models.NewSafetyPool(decimal.Zero))
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	a := models.NewInvestment(id.InvestmentID(uuid.New()), "GA", id.PolicyID(uuid.New()), decimal.NewFromInt(10), 0, 0, now)
	b := models.NewInvestment(id.InvestmentID(uuid.New()), "GB", id.PolicyID(uuid.New()), decimal.NewFromInt(10), 0, 0, now.Add(time.Hour))
	require.NoError(t, s.CreateInvestment(ctx, a))
	require.NoError(t, s.CreateInvestment(ctx, b))
	assert.ErrorIs(t, s.CreateInvestment(ctx, a), sentinel.ErrAlreadyUsed)

	all, err := s.ListInvestments(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)

	mine, err := s.ListInvestments(ctx, "GB")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = s.FindInvestment(ctx, id.InvestmentID(uuid.New()))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
