// Package middleware provides HTTP middleware for the MenuForge server.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/MenuForge/internal/logger"
)

// HeaderRequestID is the header carrying the correlation ID in both directions.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 64

// RequestID is HTTP middleware that accepts a well-formed X-Request-ID from
// the client or generates a new one. The ID is stored in the context and
// echoed on the response. The same ID is forwarded as a NATS header by the
// queue adapter, so it stays visible across published catalog events.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validRequestID accepts short IDs made of [A-Za-z0-9._-]. Anything else is
// replaced so client input never reaches log lines verbatim.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
