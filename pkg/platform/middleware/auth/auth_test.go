package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "villageinsure/pkg/domain"
	"villageinsure/pkg/requestcontext"
)

type stubValidator struct {
	claims *WalletClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*WalletClaims, error) {
	return s.claims, s.err
}

func serve(t *testing.T, mw func(http.Handler) http.Handler, header string) (*httptest.ResponseRecorder, id.Address) {
	t.Helper()
	var seen id.Address
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Caller(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)
	return rr, seen
}

func TestRequireWallet(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid token sets caller", func(t *testing.T) {
		mw := RequireWallet(stubValidator{claims: &WalletClaims{Address: "GALICE"}}, logger)
		rr, caller := serve(t, mw, "Bearer good")
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, id.Address("GALICE"), caller)
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		mw := RequireWallet(stubValidator{}, logger)
		rr, _ := serve(t, mw, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), `"error":"unauthorized"`)
	})

	t.Run("invalid token is unauthorized", func(t *testing.T) {
		mw := RequireWallet(stubValidator{err: errors.New("bad signature")}, logger)
		rr, _ := serve(t, mw, "Bearer forged")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("malformed address claim is unauthorized", func(t *testing.T) {
		mw := RequireWallet(stubValidator{claims: &WalletClaims{Address: "has space"}}, logger)
		rr, _ := serve(t, mw, "Bearer good")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestOptionalWallet(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("anonymous passes through", func(t *testing.T) {
		mw := OptionalWallet(stubValidator{}, logger)
		rr, caller := serve(t, mw, "")
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.True(t, caller.IsNil())
	})

	t.Run("non-bearer scheme is rejected", func(t *testing.T) {
		mw := OptionalWallet(stubValidator{}, logger)
		rr, _ := serve(t, mw, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
