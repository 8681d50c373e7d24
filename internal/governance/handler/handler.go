package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"villageinsure/internal/governance/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/httputil"
	"villageinsure/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the proposal lifecycle exposed over HTTP.
type Service interface {
	Create(ctx context.Context, draft models.Draft) (*models.Proposal, error)
	Vote(ctx context.Context, proposalID id.ProposalID, support bool) (*models.Proposal, error)
	Execute(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error)
	Get(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error)
	List(ctx context.Context, status models.Status) ([]*models.Proposal, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts proposal endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/proposals", h.HandleCreate)
	r.Get("/proposals", h.HandleList)
	r.Get("/proposals/{id}", h.HandleGet)
	r.Post("/proposals/{id}/votes", h.HandleVote)
	r.Post("/proposals/{id}/execute", h.HandleExecute)
}

// HandleCreate handles POST /proposals.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	proposal, err := h.service.Create(ctx, req.Draft())
	if err != nil {
		h.logger.WarnContext(ctx, "proposal creation failed",
			"request_id", requestID,
			"proposal_type", req.ProposalType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, proposal)
}

// HandleList handles GET /proposals with an optional ?status= filter.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	proposals, err := h.service.List(r.Context(), models.Status(r.URL.Query().Get("status")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"proposals": proposals})
}

// HandleGet handles GET /proposals/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseID(w, r)
	if !ok {
		return
	}
	proposal, err := h.service.Get(r.Context(), proposalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proposal)
}

// HandleVote handles POST /proposals/{id}/votes.
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	proposalID, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.VoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	proposal, err := h.service.Vote(ctx, proposalID, *req.Support)
	h.respond(w, r, "vote", proposalID, proposal, err)
}

// HandleExecute handles POST /proposals/{id}/execute.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	proposalID, ok := parseID(w, r)
	if !ok {
		return
	}
	proposal, err := h.service.Execute(r.Context(), proposalID)
	h.respond(w, r, "execute", proposalID, proposal, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, action string, proposalID id.ProposalID, proposal *models.Proposal, err error) {
	if err != nil {
		h.logger.WarnContext(r.Context(), "proposal action failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"action", action,
			"proposal_id", proposalID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proposal)
}

func parseID(w http.ResponseWriter, r *http.Request) (id.ProposalID, bool) {
	proposalID, err := id.ParseProposalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ProposalID{}, false
	}
	return proposalID, true
}
