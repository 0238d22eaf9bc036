// Package identity supplies the authenticated actor for each request. It
// trusts the upstream session issuer completely and performs no credential
// verification of its own.
package identity

import (
	"context"
	"strings"
)

// Claims lists the tenants and organizational units an actor may act within.
type Claims struct {
	Tenants []string `json:"tenants"`
	OUs     []string `json:"ous"`
}

// ActorContext describes the authenticated actor for one request. It is
// constructed once when the session is loaded and read-only afterwards.
type ActorContext struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	Claims Claims   `json:"claims"`
}

// HasRole reports whether the actor holds the named role, case-insensitively.
func (a *ActorContext) HasRole(name string) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}

// IsSuperadmin reports whether the actor bypasses tenant/OU scope checks.
func (a *ActorContext) IsSuperadmin() bool {
	return a.HasRole("superadmin") || a.HasRole("admin")
}

// MemberOfTenant reports whether the tenant appears in the actor's claims.
func (a *ActorContext) MemberOfTenant(tenantID string) bool {
	if a == nil {
		return false
	}
	for _, t := range a.Claims.Tenants {
		if t == tenantID {
			return true
		}
	}
	return false
}

// MemberOfOU reports whether the organizational unit appears in the claims.
func (a *ActorContext) MemberOfOU(ouID string) bool {
	if a == nil {
		return false
	}
	for _, o := range a.Claims.OUs {
		if o == ouID {
			return true
		}
	}
	return false
}

type actorContextKey struct{}

// ContextWithActor stores the actor in the request context.
func ContextWithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from the request context.
func ActorFromContext(ctx context.Context) *ActorContext {
	actor, _ := ctx.Value(actorContextKey{}).(*ActorContext)
	return actor
}
