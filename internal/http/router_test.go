package httpapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"villageinsure/internal/app"
	httpapi "villageinsure/internal/http"
	jwttoken "villageinsure/internal/jwt_token"
	"villageinsure/internal/platform/metrics"
	"villageinsure/internal/rules"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/audit/publisher"
	auditmemory "villageinsure/pkg/platform/audit/store/memory"
	"villageinsure/pkg/testutil"
)

const adminToken = "operator-secret"

type RouterFlowSuite struct {
	suite.Suite
	router http.Handler
	ledger *app.App
	jwt    *jwttoken.JWTService
	now    time.Time
}

func TestRouterFlowSuite(t *testing.T) {
	suite.Run(t, new(RouterFlowSuite))
}

func (s *RouterFlowSuite) SetupTest() {
	s.now = time.Now().UTC()
	reg := prometheus.NewRegistry()
	pub := publisher.NewPublisher(auditmemory.NewInMemoryStore())

	s.ledger = app.New(app.Options{
		Rules:      rules.Defaults(),
		Audit:      pub,
		Registerer: reg,
	})
	s.Require().NoError(s.ledger.Bootstrap(context.Background(), []id.Address{"GDAO1", "GDAO2", "GDAO3"}))

	s.jwt = jwttoken.NewJWTService("test-signing-key", "villageinsure", "villageinsure-api")
	s.router = httpapi.NewRouter(httpapi.Config{
		Validator:  s.jwt.Validator(),
		Metrics:    metrics.New(reg),
		Gatherer:   reg,
		Audit:      pub,
		Tokens:     s.jwt,
		AdminToken: adminToken,
		Clock:      func() time.Time { return s.now },
	}, s.ledger.Handlers(nil)...)
}

func (s *RouterFlowSuite) as(req *http.Request, addr id.Address) *http.Request {
	token, err := s.jwt.GenerateWalletToken(addr, time.Now(), time.Hour)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func (s *RouterFlowSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, req)
}

type created struct {
	ID string `json:"id"`
}

func (s *RouterFlowSuite) TestOperationalEndpoints() {
	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(s.T(), rr)
	s.NotEmpty(rr.Header().Get("X-Request-ID"))

	rr = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), "villageinsure_http_requests_total")
}

func (s *RouterFlowSuite) TestDevTokenIssue() {
	body := map[string]any{"address": "GFARMER"}

	s.Run("requires the admin token", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/token", body))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("minted token authenticates the wallet", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/token", body)
		req.Header.Set("X-Admin-Token", adminToken)
		rr := s.do(req)
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		}](s.T(), rr)
		s.Equal("Bearer", resp.TokenType)

		register := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", map[string]string{"name": "Amina"})
		register.Header.Set("Authorization", "Bearer "+resp.AccessToken)
		rr = s.do(register)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "address", "GFARMER")
	})
}

func (s *RouterFlowSuite) TestWalletRequired() {
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", map[string]string{"name": "Amina"}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", map[string]string{"name": "Amina"})
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr = s.do(req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *RouterFlowSuite) TestPremiumToPayout() {
	t := s.T()

	rr := s.do(s.as(testutil.NewJSONRequest(t, http.MethodPost, "/users", map[string]string{"name": "Amina"}), "GFARMER"))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = s.do(s.as(testutil.NewJSONRequest(t, http.MethodPost, "/pool/funding", map[string]string{"amount": "5000"}), "GDAO1"))
	testutil.AssertStatusOK(t, rr)

	rr = s.do(s.as(testutil.NewJSONRequest(t, http.MethodPost, "/policies", map[string]any{
		"title":            "Maize drought cover",
		"max_claim_amount": "1000",
		"premium_amount":   "10",
	}), "GDAO1"))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	policy := testutil.UnmarshalResponse[created](t, rr)

	rr = s.do(s.as(testutil.NewJSONRequest(t, http.MethodPost, "/subscriptions", map[string]string{"policy_id": policy.ID}), "GFARMER"))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	sub := testutil.UnmarshalResponse[created](t, rr)

	rr = s.do(s.as(testutil.NewRequest(t, http.MethodPost, "/subscriptions/"+sub.ID+"/premium"), "GFARMER"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "weeks_paid", float64(1))

	rr = s.do(s.as(testutil.NewJSONRequest(t, http.MethodPost, "/claims", map[string]string{
		"subscription_id": sub.ID,
		"amount":          "300",
		"claim_type":      "crop",
		"description":     "failed rains",
		"evidence_hash":   "bafybeidrought",
	}), "GFARMER"))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	claim := testutil.UnmarshalResponse[created](t, rr)

	s.Run("claimer cannot approve their own claim", func() {
		rr := s.do(s.as(testutil.NewRequest(t, http.MethodPost, "/claims/"+claim.ID+"/approve"), "GFARMER"))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	rr = s.do(s.as(testutil.NewRequest(t, http.MethodPost, "/claims/"+claim.ID+"/approve"), "GDAO2"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "paid")

	rr = s.do(testutil.NewRequest(t, http.MethodGet, "/pool"))
	testutil.AssertStatusOK(t, rr)
	pool := testutil.UnmarshalResponse[struct {
		TotalBalance decimal.Decimal `json:"total_balance"`
		ClaimPayouts decimal.Decimal `json:"claim_payouts"`
	}](t, rr)
	s.True(pool.TotalBalance.Equal(decimal.NewFromInt(4710)), "balance %s", pool.TotalBalance)
	s.True(pool.ClaimPayouts.Equal(decimal.NewFromInt(300)))

	rr = s.do(testutil.NewRequest(t, http.MethodGet, "/claims/statistics"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "paid_claims", float64(1))

	rr = s.do(testutil.NewRequest(t, http.MethodGet, "/audit/events?actor=GFARMER"))
	testutil.AssertStatusOK(t, rr)
	body := rr.Body.String()
	for _, action := range []string{"user_registered", "subscribed", "premium_paid", "claim_submitted"} {
		s.True(strings.Contains(body, action), "missing %s in %s", action, body)
	}
}

func (s *RouterFlowSuite) TestProposalActivatesPendingPolicy() {
	t := s.T()

	rr := s.do(s.as(testutil.NewJSONRequest(t, http.MethodPost, "/policies", map[string]any{
		"title":                 "Herd cover",
		"max_claim_amount":      "800",
		"premium_amount":        "8",
		"requires_dao_approval": true,
	}), "GDAO1"))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	policy := testutil.UnmarshalResponse[struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}](t, rr)
	s.Equal("pending", policy.Status)

	rr = s.do(s.as(testutil.NewJSONRequest(t, http.MethodPost, "/proposals", map[string]any{
		"proposal_type":  "plan_management",
		"title":          "Activate herd cover",
		"execution_data": map[string]string{"action": "activate", "policy_id": policy.ID},
	}), "GDAO1"))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	proposal := testutil.UnmarshalResponse[created](t, rr)

	for _, voter := range []id.Address{"GDAO1", "GDAO2", "GDAO3"} {
		rr = s.do(s.as(testutil.NewJSONRequest(t, http.MethodPost, "/proposals/"+proposal.ID+"/votes", map[string]bool{"support": true}), voter))
		testutil.AssertStatusOK(t, rr)
	}

	rr = s.do(s.as(testutil.NewRequest(t, http.MethodPost, "/proposals/"+proposal.ID+"/execute"), "GDAO3"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "executed")

	rr = s.do(testutil.NewRequest(t, http.MethodGet, "/policies/"+policy.ID))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "active")

	rr = s.do(testutil.NewRequest(t, http.MethodGet, "/audit/events?limit=5"))
	testutil.AssertStatusOK(t, rr)
	s.Contains(rr.Body.String(), proposal.ID)
}
