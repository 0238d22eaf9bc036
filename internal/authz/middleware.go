package authz

import (
	"log/slog"
	"net/http"

	"github.com/haulpoint/haulpoint/internal/identity"
	"github.com/haulpoint/haulpoint/internal/platform/httpx"
)

// Middleware wires permission checks into HTTP handler chains. Observe, when
// set, receives the outcome of every decision ("allow" or "deny").
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
	Observe  func(guard, outcome string)
}

func (m Middleware) observe(guard, outcome string) {
	if m.Observe != nil {
		m.Observe(guard, outcome)
	}
}

// RequirePermission ensures the current actor holds the named permission.
// Superadmins pass unconditionally.
func (m Middleware) RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := identity.ActorFromContext(r.Context())
			if actor == nil {
				httpx.Fail(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
				return
			}
			if actor.IsSuperadmin() {
				m.observe("permission", "allow")
				next.ServeHTTP(w, r)
				return
			}
			granted := m.Resolver.EffectivePermissions(r.Context(), actor.Roles)
			if granted.Has(perm) {
				m.observe("permission", "allow")
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("permission denied",
					slog.String("user", actor.UserID),
					slog.String("permission", perm))
			}
			m.observe("permission", "deny")
			httpx.Fail(w, http.StatusForbidden, httpx.CodeForbidden, "missing permission")
		})
	}
}

// RequirePolicyTag gates a handler on a coarse capability class.
func (m Middleware) RequirePolicyTag(tag PolicyTag) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := identity.ActorFromContext(r.Context())
			if actor == nil {
				httpx.Fail(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
				return
			}
			if actor.IsSuperadmin() {
				m.observe("policy_tag", "allow")
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range actor.Roles {
				if HasPolicyTag(role, tag) {
					m.observe("policy_tag", "allow")
					next.ServeHTTP(w, r)
					return
				}
			}
			m.observe("policy_tag", "deny")
			httpx.Fail(w, http.StatusForbidden, httpx.CodeForbidden, "missing capability")
		})
	}
}
