package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"villageinsure/internal/pool/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/httputil"
	"villageinsure/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the safety pool operations exposed over HTTP. Reserve
// withdrawals and minimum reserve changes run only through proposals and are
// not routed here.
type Service interface {
	Details(ctx context.Context) (*models.SafetyPool, error)
	Summary(ctx context.Context) (models.Summary, error)
	AddExternalFunding(ctx context.Context, amount decimal.Decimal) (*models.SafetyPool, error)
	Audit(ctx context.Context) (*models.AuditReport, error)
	DepositInvestment(ctx context.Context, policyID id.PolicyID, amount decimal.Decimal) (*models.Investment, error)
	WithdrawInvestment(ctx context.Context, invID id.InvestmentID) (*models.Investment, error)
	ListInvestments(ctx context.Context, investor id.Address) ([]*models.Investment, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts pool endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/pool", h.HandleDetails)
	r.Get("/pool/summary", h.HandleSummary)
	r.Post("/pool/funding", h.HandleFunding)
	r.Post("/pool/audit", h.HandleAudit)
	r.Get("/pool/investments", h.HandleListInvestments)
	r.Post("/pool/investments", h.HandleDeposit)
	r.Post("/pool/investments/{id}/withdraw", h.HandleWithdraw)
}

// HandleDetails handles GET /pool.
func (h *Handler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	pool, err := h.service.Details(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pool)
}

// HandleSummary handles GET /pool/summary.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleFunding handles POST /pool/funding.
func (h *Handler) HandleFunding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.FundingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	pool, err := h.service.AddExternalFunding(ctx, req.ParsedAmount())
	if err != nil {
		h.logger.WarnContext(ctx, "external funding failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pool)
}

// HandleAudit handles POST /pool/audit.
func (h *Handler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	report, err := h.service.Audit(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleListInvestments handles GET /pool/investments?investor=ADDRESS.
func (h *Handler) HandleListInvestments(w http.ResponseWriter, r *http.Request) {
	var investor id.Address
	if raw := r.URL.Query().Get("investor"); raw != "" {
		addr, err := id.ParseAddress(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		investor = addr
	}
	investments, err := h.service.ListInvestments(r.Context(), investor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"investments": investments})
}

// HandleDeposit handles POST /pool/investments.
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.DepositRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	inv, err := h.service.DepositInvestment(ctx, req.ParsedPolicyID(), req.ParsedAmount())
	if err != nil {
		h.logger.WarnContext(ctx, "investment deposit failed",
			"request_id", requestID,
			"policy_id", req.PolicyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, inv)
}

// HandleWithdraw handles POST /pool/investments/{id}/withdraw.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	invID, err := id.ParseInvestmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	inv, err := h.service.WithdrawInvestment(ctx, invID)
	if err != nil {
		h.logger.WarnContext(ctx, "investment withdrawal failed",
			"request_id", requestcontext.RequestID(ctx),
			"investment_id", invID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, inv)
}
