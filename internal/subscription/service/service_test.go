package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	catalogModels "villageinsure/internal/catalog/models"
	catalogService "villageinsure/internal/catalog/service"
	catalogStore "villageinsure/internal/catalog/store"
	memberModels "villageinsure/internal/members/models"
	memberService "villageinsure/internal/members/service"
	memberStore "villageinsure/internal/members/store"
	poolModels "villageinsure/internal/pool/models"
	poolService "villageinsure/internal/pool/service"
	poolStore "villageinsure/internal/pool/store"
	"villageinsure/internal/rules"
	"villageinsure/internal/subscription/models"
	"villageinsure/internal/subscription/store"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/tx"
	"villageinsure/pkg/testutil"
)

const (
	dao    id.Address = "GDAO"
	farmer id.Address = "GFARMER"
)

type SubscriptionServiceSuite struct {
	suite.Suite
	rules   *rules.Store
	catalog *catalogService.Service
	pool    *poolService.Service
	service *Service
	policy  *catalogModels.Policy
	start   time.Time
}

func TestSubscriptionServiceSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.start = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	serializer := tx.NewSerializer(time.Second)
	s.rules = rules.NewStore(rules.Defaults())

	members := memberService.New(memberStore.NewInMemory(), s.rules, serializer)
	s.Require().NoError(members.Bootstrap(context.Background(), []id.Address{dao}))
	_, err := members.Register(s.at(farmer, 0), farmer, "")
	s.Require().NoError(err)

	s.catalog = catalogService.New(catalogStore.NewInMemory(), members, serializer)
	s.policy, err = s.catalog.Propose(s.at(dao, 0), "Policy P", "", catalogModels.Params{
		MaxClaimAmount:    decimal.NewFromInt(5000),
		PremiumAmount:     decimal.NewFromInt(50),
		ClaimCooldownDays: 30,
	})
	s.Require().NoError(err)

	s.pool = poolService.New(poolStore.NewInMemory(poolModels.NewSafetyPool(decimal.Zero)), members, s.catalog, s.rules, serializer)
	s.service = New(store.NewInMemory(), members, s.catalog, s.pool, s.rules, serializer)
}

// at returns a context for addr on the given day after start.
func (s *SubscriptionServiceSuite) at(addr id.Address, day int) context.Context {
	return testutil.CallerAt(context.Background(), addr, s.start.Add(time.Duration(day)*24*time.Hour))
}

func (s *SubscriptionServiceSuite) subscribe() *models.Subscription {
	sub, err := s.service.Subscribe(s.at(farmer, 0), s.policy.ID)
	s.Require().NoError(err)
	return sub
}

func (s *SubscriptionServiceSuite) poolState() *poolModels.SafetyPool {
	p, err := s.pool.Details(context.Background())
	s.Require().NoError(err)
	s.Require().NoError(p.CheckIdentity())
	return p
}

func (s *SubscriptionServiceSuite) TestSubscribe() {
	sub := s.subscribe()
	s.Equal(0, sub.WeeksPaid)
	s.Equal(0, sub.WeeksDue)
	s.Equal(models.StatusActive, sub.Status)
	s.Equal(s.start, sub.StartDate)
	s.True(s.poolState().TotalBalance.IsZero())

	s.Run("second open subscription to the same policy conflicts", func() {
		_, err := s.service.Subscribe(s.at(farmer, 1), s.policy.ID)
		s.ErrorIs(err, models.ErrAlreadySubscribed)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("resubscribing after cancel is allowed", func() {
		_, err := s.service.Cancel(s.at(farmer, 2), sub.ID)
		s.Require().NoError(err)
		_, err = s.service.Subscribe(s.at(farmer, 2), s.policy.ID)
		s.Require().NoError(err)
	})

	s.Run("unregistered wallets cannot subscribe", func() {
		_, err := s.service.Subscribe(s.at("GSTRANGER", 0), s.policy.ID)
		s.ErrorIs(err, memberModels.ErrNotRegistered)
	})
}

func (s *SubscriptionServiceSuite) TestSubscribeRequiresActivePolicy() {
	pending, err := s.catalog.Propose(s.at(farmer, 0), "Pending", "", catalogModels.Params{
		MaxClaimAmount: decimal.NewFromInt(100),
		PremiumAmount:  decimal.NewFromInt(1),
	})
	s.Require().NoError(err)

	_, err = s.service.Subscribe(s.at(farmer, 0), pending.ID)
	s.ErrorIs(err, catalogModels.ErrPolicyNotActive)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *SubscriptionServiceSuite) TestTwoPaymentsOnDayFourteen() {
	sub := s.subscribe()

	paid, err := s.service.PayPremium(s.at(farmer, 14), sub.ID)
	s.Require().NoError(err)
	s.Equal(1, paid.WeeksPaid)
	s.Equal(models.StatusGracePeriod, paid.Status)

	paid, err = s.service.PayPremium(s.at(farmer, 14), sub.ID)
	s.Require().NoError(err)
	s.Equal(2, paid.WeeksPaid)
	s.Equal(2, paid.WeeksDue)
	s.Equal(models.StatusActive, paid.Status)
	s.True(paid.TotalPremiumsPaid.Equal(decimal.NewFromInt(100)))

	s.True(s.poolState().PremiumContributions.Equal(decimal.NewFromInt(100)))

	_, err = s.service.PayPremium(s.at(farmer, 14), sub.ID)
	s.ErrorIs(err, models.ErrNoPremiumDue)

	payments, err := s.service.ListPayments(context.Background(), sub.ID)
	s.Require().NoError(err)
	s.Require().Len(payments, 2)
	s.Equal(2, payments[1].WeekNumber)
}

func (s *SubscriptionServiceSuite) TestConcurrentPaymentsNeverOverpay() {
	sub := s.subscribe()

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		noneDue   atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.PayPremium(s.at(farmer, 14), sub.ID)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeInvalidState):
				noneDue.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(2), successes.Load())
	s.Equal(int32(18), noneDue.Load())

	stored, err := s.service.Get(context.Background(), sub.ID)
	s.Require().NoError(err)
	s.Equal(2, stored.WeeksPaid)
	s.True(stored.TotalPremiumsPaid.Equal(decimal.NewFromInt(100)))
	s.True(s.poolState().TotalBalance.Equal(decimal.NewFromInt(100)))

	payments, err := s.service.ListPayments(context.Background(), sub.ID)
	s.Require().NoError(err)
	s.Len(payments, 2)
}

func (s *SubscriptionServiceSuite) TestUnpaidFortyDaysSuspends() {
	sub := s.subscribe()

	current, err := s.service.Get(s.at(farmer, 40), sub.ID)
	s.Require().NoError(err)
	s.Equal(5, current.WeeksDue)
	s.Equal(0, current.WeeksPaid)
	s.Equal(models.StatusSuspended, current.Status)

	listed, err := s.service.ListByUser(s.at(farmer, 40), farmer)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(models.StatusSuspended, listed[0].Status)
}

func (s *SubscriptionServiceSuite) TestLatePaymentPenalty() {
	rate := int64(1000)
	_, err := s.rules.Update(rules.Patch{PenaltyRateBps: &rate})
	s.Require().NoError(err)
	sub := s.subscribe()

	_, err = s.service.PayPremium(s.at(farmer, 7), sub.ID)
	s.Require().NoError(err)

	payments, err := s.service.ListPayments(context.Background(), sub.ID)
	s.Require().NoError(err)
	s.Require().Len(payments, 1)
	s.True(payments[0].PenaltyApplied)
	s.True(payments[0].Penalty.Equal(decimal.NewFromInt(5)))
	s.True(s.poolState().PremiumContributions.Equal(decimal.NewFromInt(55)))
}

func (s *SubscriptionServiceSuite) TestSuspendedSubscriptionReactivates() {
	sub := s.subscribe()
	var last *models.Subscription
	for i := 0; i < 5; i++ {
		paid, err := s.service.PayPremium(s.at(farmer, 40), sub.ID)
		s.Require().NoError(err)
		last = paid
	}
	s.Equal(models.StatusActive, last.Status)
	s.True(s.poolState().TotalBalance.Equal(decimal.NewFromInt(250)))
}

func (s *SubscriptionServiceSuite) TestCancel() {
	sub := s.subscribe()

	_, err := s.service.Cancel(s.at(dao, 3), sub.ID)
	s.ErrorIs(err, models.ErrNotSubscriber)

	cancelled, err := s.service.Cancel(s.at(farmer, 3), sub.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, cancelled.Status)

	_, err = s.service.Cancel(s.at(farmer, 4), sub.ID)
	s.ErrorIs(err, models.ErrSubscriptionCancelled)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	_, err = s.service.PayPremium(s.at(farmer, 30), sub.ID)
	s.ErrorIs(err, models.ErrSubscriptionCancelled)
}

func (s *SubscriptionServiceSuite) TestOnlySubscriberPays() {
	sub := s.subscribe()
	_, err := s.service.PayPremium(s.at(dao, 7), sub.ID)
	s.ErrorIs(err, models.ErrNotSubscriber)

	_, err = s.service.PayPremium(s.at(farmer, 7), id.SubscriptionID(uuid.New()))
	s.ErrorIs(err, models.ErrSubscriptionNotFound)
}
