package identity

import (
	"log/slog"
	"net/http"
	"strings"
)

// SessionHeader carries the opaque session id issued at login.
const SessionHeader = "X-Session-Token"

// SessionCookie is the fallback cookie name used by the console.
const SessionCookie = "haulpoint_session"

// Middleware loads the actor for each request. Requests without a valid
// session proceed without an actor; the guards downstream reject them.
type Middleware struct {
	Store  *Store
	Logger *slog.Logger
}

// WithActor resolves the session token and attaches the actor to the context.
func (m Middleware) WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(SessionHeader))
		if token == "" {
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := m.Store.Load(r.Context(), token)
		if err != nil {
			if err != ErrSessionNotFound && m.Logger != nil {
				m.Logger.Error("load actor session", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}
