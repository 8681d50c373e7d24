package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"villageinsure/internal/members/metrics"
	"villageinsure/internal/members/models"
	"villageinsure/internal/members/store"
	"villageinsure/internal/rules"
	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/audit"
	auditmocks "villageinsure/pkg/platform/audit/mocks"
	"villageinsure/pkg/platform/tx"
	"villageinsure/pkg/requestcontext"
	"villageinsure/pkg/testutil"
)

const (
	alice id.Address = "GALICE"
	bob   id.Address = "GBOB"
	carol id.Address = "GCAROL"
)

type MembersServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	auditor *auditmocks.MockEmitter
	users   *store.InMemory
	rules   *rules.Store
	service *Service
	now     time.Time
}

func TestMembersServiceSuite(t *testing.T) {
	suite.Run(t, new(MembersServiceSuite))
}

func (s *MembersServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.auditor = auditmocks.NewMockEmitter(s.ctrl)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	s.users = store.NewInMemory()
	s.rules = rules.NewStore(rules.Defaults())
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.service = New(s.users, s.rules, tx.NewSerializer(time.Second),
		WithAuditPublisher(s.auditor),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
}

func (s *MembersServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *MembersServiceSuite) as(addr id.Address) context.Context {
	return testutil.CallerAt(context.Background(), addr, s.now)
}

func (s *MembersServiceSuite) proposal() context.Context {
	return requestcontext.WithProposalExecution(s.as(""), id.ProposalID(uuid.New()))
}

func (s *MembersServiceSuite) register(addr id.Address) *models.User {
	u, err := s.service.Register(s.as(addr), addr, "")
	s.Require().NoError(err)
	return u
}

func (s *MembersServiceSuite) TestRegister() {
	s.Run("new users are active with the initial credit score", func() {
		u := s.register(alice)
		s.Equal(models.StatusActive, u.Status)
		s.Equal(0, u.CreditScore)
		s.Equal(s.now, u.JoinDate)
	})

	s.Run("duplicate address conflicts", func() {
		_, err := s.service.Register(s.as(alice), alice, "again")
		s.ErrorIs(err, models.ErrAlreadyRegistered)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("caller may only register themselves", func() {
		_, err := s.service.Register(s.as(bob), carol, "")
		s.ErrorIs(err, models.ErrCallerMismatch)
	})

	s.Run("pending when member approval is required", func() {
		approval := true
		_, err := s.rules.Update(rules.Patch{RequireMemberApproval: &approval})
		s.Require().NoError(err)
		u := s.register(bob)
		s.Equal(models.StatusPending, u.Status)
	})
}

func (s *MembersServiceSuite) TestRegisterEmitsAudit() {
	ctrl := gomock.NewController(s.T())
	auditor := auditmocks.NewMockEmitter(ctrl)
	svc := New(s.users, s.rules, tx.NewSerializer(time.Second), WithAuditPublisher(auditor))

	auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventUserRegistered), e.Action)
		s.Equal(alice, e.Actor)
		s.Equal("user:GALICE", e.Subject)
		return nil
	})
	_, err := svc.Register(s.as(alice), alice, "")
	s.Require().NoError(err)
}

func (s *MembersServiceSuite) TestCreditAdjustments() {
	s.Require().NoError(s.service.Bootstrap(context.Background(), []id.Address{carol}))
	s.register(alice)

	s.Run("dao member adjusts credit with clamping", func() {
		u, err := s.service.AdjustCredit(s.as(carol), alice, 150)
		s.Require().NoError(err)
		s.Equal(100, u.CreditScore)

		u, err = s.service.AdjustCredit(s.as(carol), alice, -250)
		s.Require().NoError(err)
		s.Equal(0, u.CreditScore)
	})

	s.Run("non-members are denied", func() {
		_, err := s.service.AdjustCredit(s.as(alice), alice, 10)
		s.ErrorIs(err, models.ErrNotDAOMember)
	})

	s.Run("unknown user is not found", func() {
		_, err := s.service.AdjustCredit(s.as(carol), "GNOBODY", 10)
		s.ErrorIs(err, models.ErrUserNotFound)
	})

	s.Run("reputation never drops below zero", func() {
		u, err := s.service.AdjustReputation(s.as(carol), alice, -5)
		s.Require().NoError(err)
		s.Equal(0, u.ReputationScore)
	})
}

func (s *MembersServiceSuite) TestGovernedTransitions() {
	approval := true
	_, err := s.rules.Update(rules.Patch{RequireMemberApproval: &approval})
	s.Require().NoError(err)
	s.register(alice)

	s.Run("activation requires an executing proposal", func() {
		_, err := s.service.Activate(s.as(alice), alice)
		s.ErrorIs(err, models.ErrProposalRequired)
	})

	s.Run("proposal activates a pending user", func() {
		u, err := s.service.Activate(s.proposal(), alice)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, u.Status)
	})

	s.Run("activating an active user is invalid state", func() {
		_, err := s.service.Activate(s.proposal(), alice)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("grant then ban drops membership", func() {
		u, err := s.service.SetDAOMembership(s.proposal(), alice, true)
		s.Require().NoError(err)
		s.True(u.IsVotingMember())

		u, err = s.service.Ban(s.proposal(), alice)
		s.Require().NoError(err)
		s.Equal(models.StatusBanned, u.Status)
		s.False(u.IsDAOMember)
	})

	s.Run("banned user can be reinstated", func() {
		u, err := s.service.Activate(s.proposal(), alice)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, u.Status)
	})
}

func (s *MembersServiceSuite) TestCouncilSize() {
	size := 1
	_, err := s.rules.Update(rules.Patch{CouncilSize: &size})
	s.Require().NoError(err)
	s.Require().NoError(s.service.Bootstrap(context.Background(), []id.Address{carol}))
	s.register(alice)

	_, err = s.service.SetDAOMembership(s.proposal(), alice, true)
	s.ErrorIs(err, models.ErrCouncilFull)

	_, err = s.service.SetDAOMembership(s.proposal(), carol, false)
	s.Require().NoError(err)
	_, err = s.service.SetDAOMembership(s.proposal(), alice, true)
	s.Require().NoError(err)
}

func (s *MembersServiceSuite) TestCollaboratorChecks() {
	s.Require().NoError(s.service.Bootstrap(context.Background(), []id.Address{carol}))
	s.register(alice)

	_, err := s.service.RequireActive(context.Background(), "GNOBODY")
	s.ErrorIs(err, models.ErrNotRegistered)

	u, err := s.service.RequireActive(context.Background(), alice)
	s.Require().NoError(err)
	s.Equal(alice, u.Address)

	_, err = s.service.RequireVotingMember(context.Background(), alice)
	s.ErrorIs(err, models.ErrNotDAOMember)

	n, err := s.service.CountVotingMembers(context.Background())
	s.Require().NoError(err)
	s.Equal(1, n)
	voters, err := s.service.VotingMembers(context.Background())
	s.Require().NoError(err)
	s.Equal([]id.Address{carol}, voters)

	s.Require().NoError(s.service.RecordVote(s.as(carol), carol))
	voter, err := s.service.Get(context.Background(), carol)
	s.Require().NoError(err)
	s.Require().NotNil(voter.LastVoteTimestamp)
	s.Equal(s.now, *voter.LastVoteTimestamp)
}

func (s *MembersServiceSuite) TestBootstrapPromotesExistingUsers() {
	approval := true
	_, err := s.rules.Update(rules.Patch{RequireMemberApproval: &approval})
	s.Require().NoError(err)
	s.register(alice)

	s.Require().NoError(s.service.Bootstrap(context.Background(), []id.Address{alice, bob}))

	for _, addr := range []id.Address{alice, bob} {
		u, err := s.service.Get(context.Background(), addr)
		s.Require().NoError(err)
		s.True(u.IsVotingMember(), addr)
	}
}
