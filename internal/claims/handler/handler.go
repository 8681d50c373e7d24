package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"villageinsure/internal/claims/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/httputil"
	"villageinsure/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the claim adjudication operations exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, sub models.Submission) (*models.Claim, error)
	Vote(ctx context.Context, claimID id.ClaimID, approve bool) (*models.Claim, error)
	Approve(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
	Reject(ctx context.Context, claimID id.ClaimID, reason string) (*models.Claim, error)
	Get(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
	List(ctx context.Context, status models.Status) ([]*models.Claim, error)
	ListByUser(ctx context.Context, claimer id.Address) ([]*models.Claim, error)
	Statistics(ctx context.Context) (models.Statistics, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts claim endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/claims", h.HandleSubmit)
	r.Get("/claims", h.HandleList)
	r.Get("/claims/statistics", h.HandleStatistics)
	r.Get("/claims/{id}", h.HandleGet)
	r.Post("/claims/{id}/votes", h.HandleVote)
	r.Post("/claims/{id}/approve", h.HandleApprove)
	r.Post("/claims/{id}/reject", h.HandleReject)
}

// HandleSubmit handles POST /claims.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	claim, err := h.service.Submit(ctx, req.Submission())
	if err != nil {
		h.logger.WarnContext(ctx, "claim submission failed",
			"request_id", requestID,
			"subscription_id", req.SubscriptionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, claim)
}

// HandleList handles GET /claims with optional ?user= or ?status= filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var (
		claims []*models.Claim
		err    error
	)
	if raw := query.Get("user"); raw != "" {
		addr, parseErr := id.ParseAddress(raw)
		if parseErr != nil {
			httputil.WriteError(w, parseErr)
			return
		}
		claims, err = h.service.ListByUser(ctx, addr)
	} else {
		claims, err = h.service.List(ctx, models.Status(query.Get("status")))
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"claims": claims})
}

// HandleStatistics handles GET /claims/statistics.
func (h *Handler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleGet handles GET /claims/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	claimID, ok := parseID(w, r)
	if !ok {
		return
	}
	claim, err := h.service.Get(r.Context(), claimID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

// HandleVote handles POST /claims/{id}/votes.
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	claimID, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.VoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	claim, err := h.service.Vote(ctx, claimID, *req.Approve)
	h.respond(w, r, "vote", claimID, claim, err)
}

// HandleApprove handles POST /claims/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	claimID, ok := parseID(w, r)
	if !ok {
		return
	}
	claim, err := h.service.Approve(r.Context(), claimID)
	h.respond(w, r, "approve", claimID, claim, err)
}

// HandleReject handles POST /claims/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	claimID, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.RejectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	claim, err := h.service.Reject(ctx, claimID, req.Reason)
	h.respond(w, r, "reject", claimID, claim, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, action string, claimID id.ClaimID, claim *models.Claim, err error) {
	if err != nil {
		h.logger.WarnContext(r.Context(), "claim adjudication failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"action", action,
			"claim_id", claimID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

func parseID(w http.ResponseWriter, r *http.Request) (id.ClaimID, bool) {
	claimID, err := id.ParseClaimID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ClaimID{}, false
	}
	return claimID, true
}
