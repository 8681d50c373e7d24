package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/audit"
	"villageinsure/pkg/platform/httputil"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditReader reads back published audit events.
type AuditReader interface {
	List(ctx context.Context, actor id.Address) ([]audit.Event, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

type eventResponse struct {
	Category   audit.EventCategory `json:"category"`
	Timestamp  time.Time           `json:"timestamp"`
	Actor      id.Address          `json:"actor,omitempty"`
	Subject    string              `json:"subject"`
	Action     string              `json:"action"`
	Decision   string              `json:"decision,omitempty"`
	Reason     string              `json:"reason,omitempty"`
	Amount     string              `json:"amount,omitempty"`
	RequestID  string              `json:"request_id,omitempty"`
	ProposalID string              `json:"proposal_id,omitempty"`
}

func toEventResponse(e audit.Event) eventResponse {
	return eventResponse{
		Category:   e.Category,
		Timestamp:  e.Timestamp,
		Actor:      e.Actor,
		Subject:    e.Subject,
		Action:     e.Action,
		Decision:   e.Decision,
		Reason:     e.Reason,
		Amount:     e.Amount,
		RequestID:  e.RequestID,
		ProposalID: e.ProposalID,
	}
}

type auditHandler struct {
	reader AuditReader
	logger *slog.Logger
}

func (h *auditHandler) Register(r chi.Router) {
	r.Get("/audit/events", h.HandleList)
}

// HandleList handles GET /audit/events with ?actor= or ?limit=.
func (h *auditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var (
		events []audit.Event
		err    error
	)
	if raw := query.Get("actor"); raw != "" {
		actor, parseErr := id.ParseAddress(raw)
		if parseErr != nil {
			httputil.WriteError(w, parseErr)
			return
		}
		events, err = h.reader.List(ctx, actor)
	} else {
		limit, parseErr := parseLimit(query.Get("limit"))
		if parseErr != nil {
			httputil.WriteError(w, parseErr)
			return
		}
		events, err = h.reader.Recent(ctx, limit)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read audit events", "error", err)
		httputil.WriteError(w, err)
		return
	}

	out := make([]eventResponse, len(events))
	for i, e := range events {
		out[i] = toEventResponse(e)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": out})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultAuditLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxAuditLimit {
		return 0, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 500")
	}
	return n, nil
}
