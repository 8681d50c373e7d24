package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"villageinsure/internal/catalog/handler/mocks"
	"villageinsure/internal/catalog/models"
	memberModels "villageinsure/internal/members/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/testutil"
)

func setup(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, service
}

func TestHandlePropose(t *testing.T) {
	testutil.Given(t, "a wallet proposing a policy", func(t *testing.T) {
		body := map[string]any{
			"title":               "Crop cover",
			"max_claim_amount":    "5000",
			"premium_amount":      "50",
			"claim_cooldown_days": 30,
		}

		testutil.When(t, "the body is valid", func(t *testing.T) {
			r, service := setup(t)
			service.EXPECT().Propose(gomock.Any(), "Crop cover", "", gomock.Any()).
				DoAndReturn(func(_ context.Context, _, _ string, params models.Params) (*models.Policy, error) {
					return &models.Policy{ID: id.PolicyID(uuid.New()), Title: "Crop cover", Params: params, Status: models.StatusPending}, nil
				})

			req := testutil.WithCaller(testutil.NewJSONRequest(t, http.MethodPost, "/policies", body), "GFARMER")
			rr := testutil.DoRequest(r, req)

			testutil.Then(t, "the pending policy is returned", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusCreated)
				policy := testutil.UnmarshalResponse[models.Policy](t, rr)
				if !policy.MaxClaimAmount.Equal(decimal.NewFromInt(5000)) {
					t.Fatalf("unexpected max claim amount %s", policy.MaxClaimAmount)
				}
			})
		})

		testutil.When(t, "the premium is missing", func(t *testing.T) {
			r, _ := setup(t)
			invalid := map[string]any{"title": "Crop cover", "max_claim_amount": "5000"}
			req := testutil.WithCaller(testutil.NewJSONRequest(t, http.MethodPost, "/policies", invalid), "GFARMER")
			rr := testutil.DoRequest(r, req)

			testutil.Then(t, "validation fails before the service is called", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
			})
		})
	})
}

func TestHandleArchive(t *testing.T) {
	policyID := id.PolicyID(uuid.New())

	t.Run("non-member is forbidden", func(t *testing.T) {
		r, service := setup(t)
		service.EXPECT().Archive(gomock.Any(), policyID).Return(nil, memberModels.ErrNotDAOMember)
		req := testutil.WithCaller(testutil.NewRequest(t, http.MethodPost, "/policies/"+policyID.String()+"/archive"), "GFARMER")
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("malformed id", func(t *testing.T) {
		r, _ := setup(t)
		req := testutil.WithCaller(testutil.NewRequest(t, http.MethodDelete, "/policies/not-a-uuid"), "GDAO")
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("list passes the status filter", func(t *testing.T) {
		r, service := setup(t)
		service.EXPECT().List(gomock.Any(), models.StatusActive).Return([]*models.Policy{}, nil)
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/policies?status=active"))
		testutil.AssertStatusOK(t, rr)
	})
}
