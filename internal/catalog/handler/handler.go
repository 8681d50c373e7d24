package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"villageinsure/internal/catalog/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/httputil"
	"villageinsure/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the catalog operations exposed over HTTP.
type Service interface {
	Propose(ctx context.Context, title, description string, params models.Params) (*models.Policy, error)
	Get(ctx context.Context, policyID id.PolicyID) (*models.Policy, error)
	List(ctx context.Context, status models.Status) ([]*models.Policy, error)
	Archive(ctx context.Context, policyID id.PolicyID) (*models.Policy, error)
	Delete(ctx context.Context, policyID id.PolicyID) (*models.Policy, error)
}

// Handler wires catalog endpoints to the catalog service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts catalog endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/policies", h.HandlePropose)
	r.Get("/policies", h.HandleList)
	r.Get("/policies/{id}", h.HandleGet)
	r.Post("/policies/{id}/archive", h.HandleArchive)
	r.Delete("/policies/{id}", h.HandleDelete)
}

// HandlePropose handles POST /policies.
func (h *Handler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ProposeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	policy, err := h.service.Propose(ctx, req.Title, req.Description, req.Params())
	if err != nil {
		h.logger.WarnContext(ctx, "policy proposal failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, policy)
}

// HandleList handles GET /policies?status=active.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	status := models.Status(r.URL.Query().Get("status"))
	policies, err := h.service.List(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"policies": policies})
}

// HandleGet handles GET /policies/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	policy, err := h.service.Get(r.Context(), policyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policy)
}

// HandleArchive handles POST /policies/{id}/archive.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "archive", h.service.Archive)
}

// HandleDelete handles DELETE /policies/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "delete", h.service.Delete)
}

func (h *Handler) handleTransition(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	apply func(context.Context, id.PolicyID) (*models.Policy, error),
) {
	ctx := r.Context()
	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	policy, err := apply(ctx, policyID)
	if err != nil {
		h.logger.WarnContext(ctx, "policy transition failed",
			"request_id", requestcontext.RequestID(ctx),
			"action", action,
			"policy_id", policyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policy)
}
