package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"villageinsure/internal/members/handler/mocks"
	"villageinsure/internal/members/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/testutil"
)

type MembersHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestMembersHandlerSuite(t *testing.T) {
	suite.Run(t, new(MembersHandlerSuite))
}

func (s *MembersHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *MembersHandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, req)
}

func (s *MembersHandlerSuite) TestRegister() {
	s.Run("anonymous callers are rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", models.RegisterRequest{Name: "Alice"})
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("registers the calling wallet", func() {
		s.service.EXPECT().Register(gomock.Any(), id.Address("GALICE"), "Alice").Return(&models.User{
			Address:  "GALICE",
			Name:     "Alice",
			Status:   models.StatusActive,
			JoinDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", models.RegisterRequest{Name: "  Alice "})
		rr := s.do(testutil.WithCaller(req, "GALICE"))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "status", "active")
	})

	s.Run("duplicate registration is a conflict", func() {
		s.service.EXPECT().Register(gomock.Any(), id.Address("GALICE"), "").Return(nil, models.ErrAlreadyRegistered)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", nil)
		rr := s.do(testutil.WithCaller(req, "GALICE"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})
}

func (s *MembersHandlerSuite) TestGet() {
	s.Run("unknown user", func() {
		s.service.EXPECT().Get(gomock.Any(), id.Address("GNOBODY")).Return(nil, models.ErrUserNotFound)
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/users/GNOBODY"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("lists users", func() {
		s.service.EXPECT().List(gomock.Any()).Return([]*models.User{{Address: "GALICE"}}, nil)
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/users"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONHasKey(s.T(), rr, "users")
	})
}

func (s *MembersHandlerSuite) TestAdjustCredit() {
	s.Run("zero delta fails validation", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/GALICE/credit", models.ScoreDeltaRequest{})
		rr := s.do(testutil.WithCaller(req, "GCAROL"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("non-member is forbidden", func() {
		s.service.EXPECT().AdjustCredit(gomock.Any(), id.Address("GALICE"), -10).Return(nil, models.ErrNotDAOMember)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/GALICE/credit", models.ScoreDeltaRequest{Delta: -10})
		rr := s.do(testutil.WithCaller(req, "GBOB"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("returns the updated user", func() {
		s.service.EXPECT().AdjustCredit(gomock.Any(), id.Address("GALICE"), 5).Return(&models.User{Address: "GALICE", CreditScore: 5}, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/GALICE/credit", models.ScoreDeltaRequest{Delta: 5})
		rr := s.do(testutil.WithCaller(req, "GCAROL"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "credit_score", float64(5))
	})
}
