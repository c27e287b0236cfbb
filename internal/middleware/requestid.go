// Package middleware provides HTTP middleware for Shogun.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shogunhq/shogun/internal/logger"
)

const (
	headerRequestID = "X-Request-ID"

	// maxRequestIDLen bounds caller-supplied IDs; they are copied into log
	// records and NATS message headers.
	maxRequestIDLen = 128
)

// RequestID is HTTP middleware that reuses a well-formed X-Request-ID from
// the request or generates a new UUID. The ID is stored in the context and
// echoed on the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
