package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"villageinsure/internal/subscription/models"
	id "villageinsure/pkg/domain"
	"villageinsure/pkg/platform/httputil"
	"villageinsure/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the subscription ledger operations exposed over HTTP.
type Service interface {
	Subscribe(ctx context.Context, policyID id.PolicyID) (*models.Subscription, error)
	PayPremium(ctx context.Context, subID id.SubscriptionID) (*models.Subscription, error)
	Cancel(ctx context.Context, subID id.SubscriptionID) (*models.Subscription, error)
	Get(ctx context.Context, subID id.SubscriptionID) (*models.Subscription, error)
	ListByUser(ctx context.Context, subscriber id.Address) ([]*models.Subscription, error)
	ListPayments(ctx context.Context, subID id.SubscriptionID) ([]models.Payment, error)
}

// Handler wires subscription endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts subscription endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/subscriptions", h.HandleSubscribe)
	r.Get("/subscriptions", h.HandleList)
	r.Get("/subscriptions/{id}", h.HandleGet)
	r.Get("/subscriptions/{id}/payments", h.HandleListPayments)
	r.Post("/subscriptions/{id}/premium", h.HandlePayPremium)
	r.Post("/subscriptions/{id}/cancel", h.HandleCancel)
}

// HandleSubscribe handles POST /subscriptions.
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.SubscribeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	sub, err := h.service.Subscribe(ctx, req.ParsedPolicyID())
	if err != nil {
		h.logger.WarnContext(ctx, "subscribe failed",
			"request_id", requestID,
			"policy_id", req.PolicyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sub)
}

// HandleList handles GET /subscriptions?user=ADDRESS. Without a user query it
// lists the caller's subscriptions.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var subscriber id.Address
	if raw := r.URL.Query().Get("user"); raw != "" {
		addr, err := id.ParseAddress(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		subscriber = addr
	} else {
		caller, ok := httputil.RequireCaller(w, r)
		if !ok {
			return
		}
		subscriber = caller
	}
	subs, err := h.service.ListByUser(r.Context(), subscriber)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

// HandleGet handles GET /subscriptions/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	subID, ok := parseID(w, r)
	if !ok {
		return
	}
	sub, err := h.service.Get(r.Context(), subID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sub)
}

// HandleListPayments handles GET /subscriptions/{id}/payments.
func (h *Handler) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	subID, ok := parseID(w, r)
	if !ok {
		return
	}
	payments, err := h.service.ListPayments(r.Context(), subID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

// HandlePayPremium handles POST /subscriptions/{id}/premium.
func (h *Handler) HandlePayPremium(w http.ResponseWriter, r *http.Request) {
	h.handleMutation(w, r, "pay_premium", h.service.PayPremium)
}

// HandleCancel handles POST /subscriptions/{id}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.handleMutation(w, r, "cancel", h.service.Cancel)
}

func (h *Handler) handleMutation(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	apply func(context.Context, id.SubscriptionID) (*models.Subscription, error),
) {
	ctx := r.Context()
	if _, ok := httputil.RequireCaller(w, r); !ok {
		return
	}
	subID, ok := parseID(w, r)
	if !ok {
		return
	}
	sub, err := apply(ctx, subID)
	if err != nil {
		h.logger.WarnContext(ctx, "subscription mutation failed",
			"request_id", requestcontext.RequestID(ctx),
			"action", action,
			"subscription_id", subID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sub)
}

func parseID(w http.ResponseWriter, r *http.Request) (id.SubscriptionID, bool) {
	subID, err := id.ParseSubscriptionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.SubscriptionID{}, false
	}
	return subID, true
}
