package guard

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/haulpoint/haulpoint/internal/identity"
	"github.com/haulpoint/haulpoint/internal/platform/httpx"
)

// ScopeGuard validates that the declared tenant (and optional OU) is one the
// authenticated actor is entitled to. It gates forward progress only and
// never mutates state.
type ScopeGuard struct {
	Logger *slog.Logger
}

// Handler is the middleware entry point.
func (g ScopeGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := identity.ActorFromContext(r.Context())
		if actor == nil {
			httpx.Fail(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
			return
		}

		tenantID, ouID := requestedScope(r)
		if tenantID == "" {
			httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "tenant id required")
			return
		}

		if actor.IsSuperadmin() {
			next.ServeHTTP(w, r)
			return
		}

		if !actor.MemberOfTenant(tenantID) {
			if g.Logger != nil {
				g.Logger.Warn("tenant out of scope",
					slog.String("user", actor.UserID),
					slog.String("tenant", tenantID))
			}
			httpx.Fail(w, http.StatusForbidden, httpx.CodeForbidden, "tenant out of scope")
			return
		}

		// The OU check is independent of the tenant check; both must pass.
		if ouID != "" && !actor.MemberOfOU(ouID) {
			if g.Logger != nil {
				g.Logger.Warn("organizational unit out of scope",
					slog.String("user", actor.UserID),
					slog.String("ou", ouID))
			}
			httpx.Fail(w, http.StatusForbidden, httpx.CodeForbidden, "organizational unit out of scope")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestedScope prefers the canonical identifiers injected by the Company
// Guard and falls back to query parameters for routes mounted without it.
func requestedScope(r *http.Request) (tenantID, ouID string) {
	if ids, ok := IdentifiersFromContext(r.Context()); ok {
		return ids.TenantID, ids.OUID
	}
	query := r.URL.Query()
	return strings.TrimSpace(query.Get("tenantId")), strings.TrimSpace(query.Get("ouId"))
}
