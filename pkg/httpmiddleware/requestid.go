package httpmiddleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// requestIDHeader is the header carrying the correlation ID in and out.
const requestIDHeader = "X-Request-ID"

// maxRequestIDLen caps reused incoming IDs; anything longer is replaced.
const maxRequestIDLen = 64

type requestIDKey struct{}

// RequestID returns a middleware that tags every request with a correlation
// ID. An acceptable incoming X-Request-ID is reused so IDs survive proxy
// hops; anything absent, oversized, or containing non-token bytes is
// replaced with a fresh UUID. The ID is echoed on the response and stored in
// the request context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sanitizeRequestID(r.Header.Get(requestIDHeader))
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, id)

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the ID stored by RequestID, or "" when the
// middleware did not run.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// sanitizeRequestID returns id when it is safe to reuse and log verbatim,
// "" otherwise. Safe means at most maxRequestIDLen bytes of visible ASCII
// with no whitespace.
func sanitizeRequestID(id string) string {
	if id == "" || len(id) > maxRequestIDLen {
		return ""
	}
	if strings.ContainsFunc(id, func(c rune) bool {
		return c <= 0x20 || c >= 0x7F
	}) {
		return ""
	}
	return id
}
