package middleware

import (
	"context"
	"net/http"
	"strings"
)

// SessionHeader carries the client-generated cart session token.
const SessionHeader = "X-Session-Id"

const maxSessionIDLength = 128

// Session requires the session header and stores its value in the context.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(SessionHeader))
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing "+SessionHeader+" header")
			return
		}
		if len(id) > maxSessionIDLength {
			writeError(w, http.StatusBadRequest, SessionHeader+" header is too long")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, id)))
	})
}

// SessionID returns the session stored by Session, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}
