// Package request assigns a correlation id to every request.
package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"villageinsure/pkg/requestcontext"
)

const (
	HeaderRequestID = "X-Request-ID"
	maxIDLength     = 128
)

// RequestID reuses a caller-supplied X-Request-ID when it is short and
// printable, otherwise generates one, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if !acceptable(reqID) {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), reqID)))
	})
}

// GetRequestID retrieves the request id from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}

func acceptable(v string) bool {
	if v == "" || len(v) > maxIDLength {
		return false
	}
	for _, c := range v {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
