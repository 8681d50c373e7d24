package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	id "villageinsure/pkg/domain"
	dErrors "villageinsure/pkg/domain-errors"
	"villageinsure/pkg/platform/httputil"
	"villageinsure/pkg/requestcontext"
)

const (
	defaultTokenTTL = time.Hour
	maxTokenTTL     = 24 * time.Hour
)

// TokenIssuer mints wallet tokens. Production tokens come from the wallet
// provider; this exists for local development.
type TokenIssuer interface {
	GenerateWalletToken(addr id.Address, now time.Time, expiresIn time.Duration) (string, error)
}

type tokenRequest struct {
	Address   string `json:"address"`
	ExpiresIn int    `json:"expires_in"`

	addr id.Address
}

func (r *tokenRequest) Normalize() {
	r.Address = strings.TrimSpace(r.Address)
	if r.ExpiresIn == 0 {
		r.ExpiresIn = int(defaultTokenTTL.Seconds())
	}
}

func (r *tokenRequest) Validate() error {
	addr, err := id.ParseAddress(r.Address)
	if err != nil {
		return err
	}
	if r.ExpiresIn < 0 || time.Duration(r.ExpiresIn)*time.Second > maxTokenTTL {
		return dErrors.New(dErrors.CodeValidation, "expires_in must be within 24 hours")
	}
	r.addr = addr
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type tokenHandler struct {
	issuer TokenIssuer
	logger *slog.Logger
}

// HandleIssue handles POST /auth/token.
func (h *tokenHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[tokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ttl := time.Duration(req.ExpiresIn) * time.Second
	token, err := h.issuer.GenerateWalletToken(req.addr, requestcontext.Now(ctx), ttl)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to sign wallet token",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "dev wallet token issued",
		"request_id", requestID,
		"address", req.addr,
	)
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   req.ExpiresIn,
	})
}
