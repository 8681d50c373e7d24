package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	catalogModels "villageinsure/internal/catalog/models"
	catalogService "villageinsure/internal/catalog/service"
	catalogStore "villageinsure/internal/catalog/store"
	memberModels "villageinsure/internal/members/models"
	memberService "villageinsure/internal/members/service"
	memberStore "villageinsure/internal/members/store"
	"villageinsure/internal/pool/metrics"
	"villageinsure/internal/pool/models"
	"villageinsure/internal/pool/store"
	"villageinsure/internal/rules"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/tx"
	"villageinsure/pkg/requestcontext"
	"villageinsure/pkg/testutil"
)

const (
	dao      id.Address = "GDAO"
	investor id.Address = "GINVESTOR"
)

type PoolServiceSuite struct {
	suite.Suite
	rules   *rules.Store
	service *Service
	policy  *catalogModels.Policy
	now     time.Time
}

func TestPoolServiceSuite(t *testing.T) {
	suite.Run(t, new(PoolServiceSuite))
}

func (s *PoolServiceSuite) SetupTest() {
	s.now = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	serializer := tx.NewSerializer(time.Second)
	s.rules = rules.NewStore(rules.Defaults())

	members := memberService.New(memberStore.NewInMemory(), s.rules, serializer)
	s.Require().NoError(members.Bootstrap(context.Background(), []id.Address{dao}))
	_, err := members.Register(s.as(investor), investor, "")
	s.Require().NoError(err)

	catalog := catalogService.New(catalogStore.NewInMemory(), members, serializer)
	s.policy, err = catalog.Propose(s.as(dao), "Crop", "", catalogModels.Params{
		MaxClaimAmount:     decimal.NewFromInt(5000),
		PremiumAmount:      decimal.NewFromInt(50),
		InterestRateBps:    1000,
		InvestorLockInDays: 30,
	})
	s.Require().NoError(err)

	s.service = New(store.NewInMemory(models.NewSafetyPool(decimal.NewFromInt(1000))), members, catalog, s.rules, serializer,
		WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
}

func (s *PoolServiceSuite) as(addr id.Address) context.Context {
	return testutil.CallerAt(context.Background(), addr, s.now)
}

func (s *PoolServiceSuite) proposal() context.Context {
	return requestcontext.WithProposalExecution(s.as(dao), id.ProposalID(uuid.New()))
}

func (s *PoolServiceSuite) balance() decimal.Decimal {
	p, err := s.service.Details(context.Background())
	s.Require().NoError(err)
	s.Require().NoError(p.CheckIdentity())
	return p.TotalBalance
}

func (s *PoolServiceSuite) TestPremiumAndClaim() {
	s.Require().NoError(s.service.CreditPremium(s.as(investor), decimal.NewFromInt(1500)))
	s.True(s.balance().Equal(decimal.NewFromInt(1500)))

	s.Run("payout below the reserve floor is refused and leaves the pool unchanged", func() {
		err := s.service.PayClaim(s.as(dao), decimal.NewFromInt(600))
		s.ErrorIs(err, models.ErrInsufficientReserve)
		s.True(dErrors.HasCode(err, dErrors.CodeResourceExhausted))
		s.True(s.balance().Equal(decimal.NewFromInt(1500)))
	})

	s.Run("payout within the floor is debited", func() {
		s.Require().NoError(s.service.PayClaim(s.as(dao), decimal.NewFromInt(500)))
		p, err := s.service.Details(context.Background())
		s.Require().NoError(err)
		s.True(p.ClaimPayouts.Equal(decimal.NewFromInt(500)))
		s.True(p.TotalBalance.Equal(decimal.NewFromInt(1000)))
	})

	s.Run("payout ratio caps single claims", func() {
		ratio := int64(1000)
		_, err := s.rules.Update(rules.Patch{MaxClaimAmountRatioBps: &ratio})
		s.Require().NoError(err)
		s.Require().NoError(s.service.CreditPremium(s.as(investor), decimal.NewFromInt(9000)))
		err = s.service.PayClaim(s.as(dao), decimal.NewFromInt(1001))
		s.ErrorIs(err, models.ErrPayoutRatioExceeded)
	})

	s.Run("zero amounts are rejected", func() {
		s.ErrorIs(s.service.CreditPremium(s.as(investor), decimal.Zero), models.ErrInvalidAmount)
	})
}

func (s *PoolServiceSuite) TestGovernedMovements() {
	s.Run("external funding requires a dao member", func() {
		_, err := s.service.AddExternalFunding(s.as(investor), decimal.NewFromInt(100))
		s.ErrorIs(err, memberModels.ErrNotDAOMember)

		p, err := s.service.AddExternalFunding(s.as(dao), decimal.NewFromInt(2000))
		s.Require().NoError(err)
		s.True(p.InvestmentReturns.Equal(decimal.NewFromInt(2000)))
	})

	s.Run("reserve withdrawal requires a proposal and respects the floor", func() {
		_, err := s.service.WithdrawReserve(s.as(dao), decimal.NewFromInt(100), "school roof")
		s.ErrorIs(err, memberModels.ErrProposalRequired)

		_, err = s.service.WithdrawReserve(s.proposal(), decimal.NewFromInt(1001), "school roof")
		s.ErrorIs(err, models.ErrInsufficientReserve)

		p, err := s.service.WithdrawReserve(s.proposal(), decimal.NewFromInt(1000), "school roof")
		s.Require().NoError(err)
		s.True(p.TotalBalance.Equal(decimal.NewFromInt(1000)))
	})

	s.Run("minimum reserve can be lowered by proposal", func() {
		p, err := s.service.SetMinimumReserve(s.proposal(), decimal.Zero)
		s.Require().NoError(err)
		s.True(p.MinimumReserve.IsZero())
	})

	s.Run("audit stamps the date and reports a balanced ledger", func() {
		report, err := s.service.Audit(s.as(dao))
		s.Require().NoError(err)
		s.True(report.Balanced)
		s.True(report.Deviation.IsZero())
		s.Require().NotNil(report.Pool.LastAuditDate)
		s.Equal(s.now, *report.Pool.LastAuditDate)
	})
}

func (s *PoolServiceSuite) TestInvestments() {
	_, err := s.service.AddExternalFunding(s.as(dao), decimal.NewFromInt(5000))
	s.Require().NoError(err)

	inv, err := s.service.DepositInvestment(s.as(investor), s.policy.ID, decimal.NewFromInt(3650))
	s.Require().NoError(err)
	s.Equal(models.InvestmentLocked, inv.Status)
	s.Equal(s.now.Add(30*24*time.Hour), inv.UnlocksAt)
	s.True(s.balance().Equal(decimal.NewFromInt(8650)))

	s.Run("locked investments cannot be withdrawn", func() {
		_, err := s.service.WithdrawInvestment(s.as(investor), inv.ID)
		s.ErrorIs(err, models.ErrInvestmentLocked)
	})

	s.Run("only the investor can withdraw", func() {
		later := testutil.CallerAt(context.Background(), dao, s.now.Add(40*24*time.Hour))
		_, err := s.service.WithdrawInvestment(later, inv.ID)
		s.ErrorIs(err, models.ErrNotInvestor)
	})

	s.Run("withdrawal pays principal and simple interest", func() {
		later := testutil.CallerAt(context.Background(), investor, s.now.Add(100*24*time.Hour))
		out, err := s.service.WithdrawInvestment(later, inv.ID)
		s.Require().NoError(err)
		// 3650 * 10% * 100 / 365 = 100
		s.True(out.Payout.Equal(decimal.NewFromInt(3750)), out.Payout.String())
		s.True(s.balance().Equal(decimal.NewFromInt(4900)))

		_, err = s.service.WithdrawInvestment(later, inv.ID)
		s.ErrorIs(err, models.ErrInvestmentWithdrawn)
	})

	s.Run("unknown policy", func() {
		_, err := s.service.DepositInvestment(s.as(investor), id.PolicyID(uuid.New()), decimal.NewFromInt(1))
		s.ErrorIs(err, catalogModels.ErrPolicyNotFound)
	})

	list, err := s.service.ListInvestments(context.Background(), investor)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *PoolServiceSuite) TestSummary() {
	s.Require().NoError(s.service.CreditPremium(s.as(investor), decimal.NewFromInt(2000)))
	s.Require().NoError(s.service.PayClaim(s.as(dao), decimal.NewFromInt(500)))

	summary, err := s.service.Summary(context.Background())
	s.Require().NoError(err)
	s.True(summary.TotalPremiums.Equal(decimal.NewFromInt(2000)))
	s.True(summary.TotalClaims.Equal(decimal.NewFromInt(500)))
	s.True(summary.NetBalance.Equal(decimal.NewFromInt(1500)))
	s.True(summary.ReservePercent.Equal(decimal.NewFromInt(75)), summary.ReservePercent.String())
}
