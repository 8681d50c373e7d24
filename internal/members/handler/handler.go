package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"villageinsure/internal/members/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/httputil"
	"villageinsure/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the registry operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, addr id.Address, name string) (*models.User, error)
	Get(ctx context.Context, addr id.Address) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	AdjustCredit(ctx context.Context, addr id.Address, delta int) (*models.User, error)
	AdjustReputation(ctx context.Context, addr id.Address, delta int) (*models.User, error)
}

// Handler wires registry endpoints to the members service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/users", h.HandleRegister)
	r.Get("/users", h.HandleList)
	r.Get("/users/{address}", h.HandleGet)
	r.Post("/users/{address}/credit", h.HandleAdjustCredit)
	r.Post("/users/{address}/reputation", h.HandleAdjustReputation)
}

// HandleRegister handles POST /users. The caller registers their own wallet.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := httputil.RequireCaller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := h.service.Register(ctx, caller, req.Name)
	if err != nil {
		h.logger.WarnContext(ctx, "registration failed",
			"request_id", requestID,
			"address", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

// HandleList handles GET /users.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// HandleGet handles GET /users/{address}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.service.Get(r.Context(), addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// HandleAdjustCredit handles POST /users/{address}/credit.
func (h *Handler) HandleAdjustCredit(w http.ResponseWriter, r *http.Request) {
	h.handleScoreDelta(w, r, "credit", h.service.AdjustCredit)
}

// HandleAdjustReputation handles POST /users/{address}/reputation.
func (h *Handler) HandleAdjustReputation(w http.ResponseWriter, r *http.Request) {
	h.handleScoreDelta(w, r, "reputation", h.service.AdjustReputation)
}

func (h *Handler) handleScoreDelta(
	w http.ResponseWriter,
	r *http.Request,
	kind string,
	apply func(context.Context, id.Address, int) (*models.User, error),
) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ScoreDeltaRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := apply(ctx, addr, req.Delta)
	if err != nil {
		h.logger.WarnContext(ctx, "score adjustment failed",
			"request_id", requestID,
			"kind", kind,
			"address", addr,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}
