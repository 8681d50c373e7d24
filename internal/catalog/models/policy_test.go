package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
)

func validParams() Params {
	return Params{
		MaxClaimAmount:    decimal.NewFromInt(5000),
		PremiumAmount:     decimal.NewFromInt(50),
		ClaimCooldownDays: 30,
		InterestRateBps:   500,
	}
}

func TestParamsValidate(t *testing.T) {
	cases := map[string]func(*Params){
		"zero max claim":        func(p *Params) { p.MaxClaimAmount = decimal.Zero },
		"negative premium":      func(p *Params) { p.PremiumAmount = decimal.NewFromInt(-1) },
		"interest above 100%":   func(p *Params) { p.InterestRateBps = 10001 },
		"negative cooldown":     func(p *Params) { p.ClaimCooldownDays = -1 },
		"negative lock-in":      func(p *Params) { p.InvestorLockInDays = -1 },
		"negative credit slash": func(p *Params) { p.CreditSlashOnReject = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := validParams()
			mutate(&p)
			assert.True(t, dErrors.HasCode(p.Validate(), dErrors.CodeValidation))
		})
	}
	require.NoError(t, validParams().Validate())
}

func TestPolicyLifecycle(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := NewPolicy(id.PolicyID(uuid.New()), " Crop cover ", "", validParams(), "GALICE", now)
	require.NoError(t, err)
	assert.Equal(t, "Crop cover", p.Title)
	assert.Equal(t, StatusPending, p.Status)

	require.NoError(t, p.CanActivate())
	p.ApplyActivation()
	assert.True(t, p.IsActive())
	assert.Error(t, p.CanActivate())

	require.NoError(t, p.CanArchive())
	p.ApplyArchive()
	assert.Error(t, p.CanDelete())
	assert.Error(t, p.CanArchive())
}

func TestNewPolicyRequiresTitle(t *testing.T) {
	_, err := NewPolicy(id.PolicyID(uuid.New()), "  ", "", validParams(), "GALICE", time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestProposeRequest(t *testing.T) {
	req := &ProposeRequest{Title: "Livestock", MaxClaimAmount: " 5000 ", PremiumAmount: "12.50"}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.True(t, req.Params().PremiumAmount.Equal(decimal.RequireFromString("12.5")))

	bad := &ProposeRequest{Title: "Livestock", MaxClaimAmount: "abc", PremiumAmount: "1"}
	bad.Normalize()
	assert.True(t, dErrors.HasCode(bad.Validate(), dErrors.CodeValidation))
}
