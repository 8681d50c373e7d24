// Package auth resolves the caller's wallet address from a bearer token.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "villageinsure/pkg/domain"
	request "villageinsure/pkg/platform/middleware/request"
	"villageinsure/pkg/requestcontext"
)

// WalletValidator validates wallet identity tokens.
type WalletValidator interface {
	ValidateToken(tokenString string) (*WalletClaims, error)
}

// WalletClaims are the claims the middleware needs from a validated token.
type WalletClaims struct {
	Address string
	JTI     string
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireWallet rejects requests without a valid bearer token and stores the
// wallet address as the request caller.
func RequireWallet(validator WalletValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return wallet(validator, logger, true)
}

// OptionalWallet attaches the caller when a valid token is present and lets
// anonymous requests through. An invalid token is still rejected.
func OptionalWallet(validator WalletValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return wallet(validator, logger, false)
}

func wallet(validator WalletValidator, logger *slog.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				if !required && authHeader == "" {
					next.ServeHTTP(w, r)
					return
				}
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			addr, err := id.ParseAddress(claims.Address)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed wallet address",
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, addr)))
		})
	}
}
