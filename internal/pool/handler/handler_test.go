package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"villageinsure/internal/pool/handler/mocks"
	"villageinsure/internal/pool/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/testutil"
)

func setup(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	service := mocks.NewMockService(gomock.NewController(t))
	r := chi.NewRouter()
	New(service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, service
}

func TestHandleSummary(t *testing.T) {
	r, service := setup(t)
	service.EXPECT().Summary(gomock.Any()).Return(models.Summary{
		TotalPremiums:  decimal.NewFromInt(100),
		TotalClaims:    decimal.NewFromInt(40),
		NetBalance:     decimal.NewFromInt(60),
		ReservePercent: decimal.NewFromInt(60),
	}, nil)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/pool/summary"))

	testutil.AssertStatusOK(t, rr)
	summary := testutil.UnmarshalResponse[models.Summary](t, rr)
	assert.True(t, summary.NetBalance.Equal(decimal.NewFromInt(60)))
}

func TestHandleFunding(t *testing.T) {
	testutil.Given(t, "a funding request", func(t *testing.T) {
		testutil.When(t, "the amount is valid", func(t *testing.T) {
			r, service := setup(t)
			service.EXPECT().AddExternalFunding(gomock.Any(), decimal.RequireFromString("250.50")).
				Return(&models.SafetyPool{TotalBalance: decimal.RequireFromString("250.50")}, nil)

			req := testutil.WithCaller(testutil.NewJSONRequest(t, http.MethodPost, "/pool/funding", map[string]string{"amount": "250.50"}), "GDAO")
			rr := testutil.DoRequest(r, req)

			testutil.Then(t, "the updated pool is returned", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONContains(t, rr, "total_balance", "250.5")
			})
		})

		testutil.When(t, "the amount is negative", func(t *testing.T) {
			r, _ := setup(t)
			req := testutil.WithCaller(testutil.NewJSONRequest(t, http.MethodPost, "/pool/funding", map[string]string{"amount": "-5"}), "GDAO")
			rr := testutil.DoRequest(r, req)

			testutil.Then(t, "the request is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
			})
		})

		testutil.When(t, "no wallet is attached", func(t *testing.T) {
			r, _ := setup(t)
			rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/pool/funding", map[string]string{"amount": "5"}))

			testutil.Then(t, "the request is unauthorized", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})
		})
	})
}

func TestHandleWithdraw(t *testing.T) {
	invID := id.InvestmentID(uuid.New())
	path := "/pool/investments/" + invID.String() + "/withdraw"

	t.Run("locked investment", func(t *testing.T) {
		r, service := setup(t)
		service.EXPECT().WithdrawInvestment(gomock.Any(), invID).Return(nil, models.ErrInvestmentLocked)
		rr := testutil.DoRequest(r, testutil.WithCaller(testutil.NewRequest(t, http.MethodPost, path), "GINVESTOR"))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "invalid_state")
	})

	t.Run("reserve breach", func(t *testing.T) {
		r, service := setup(t)
		service.EXPECT().WithdrawInvestment(gomock.Any(), invID).Return(nil, models.ErrInsufficientReserve)
		rr := testutil.DoRequest(r, testutil.WithCaller(testutil.NewRequest(t, http.MethodPost, path), "GINVESTOR"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "resource_exhausted")
	})

	t.Run("malformed id", func(t *testing.T) {
		r, _ := setup(t)
		rr := testutil.DoRequest(r, testutil.WithCaller(testutil.NewRequest(t, http.MethodPost, "/pool/investments/nope/withdraw"), "GINVESTOR"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestHandleListInvestments(t *testing.T) {
	r, service := setup(t)
	service.EXPECT().ListInvestments(gomock.Any(), id.Address("GINVESTOR")).Return([]*models.Investment{}, nil)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/pool/investments?investor=GINVESTOR"))

	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONHasKey(t, rr, "investments")
}
