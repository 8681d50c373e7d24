package testutil

import (
	"context"
	"net/http"
	"time"

	id "villageinsure/pkg/domain"
	"villageinsure/pkg/requestcontext"
)

// WithCaller attaches a wallet address the way the wallet middleware does.
// An unparsable address leaves the request anonymous.
func WithCaller(req *http.Request, addr string) *http.Request {
	if parsed, err := id.ParseAddress(addr); err == nil {
		return req.WithContext(requestcontext.WithCaller(req.Context(), parsed))
	}
	return req
}

// CallerAt returns a context carrying both a caller and a fixed clock, the
// usual starting point for service tests.
func CallerAt(ctx context.Context, addr id.Address, now time.Time) context.Context {
	return requestcontext.WithTime(requestcontext.WithCaller(ctx, addr), now)
}
