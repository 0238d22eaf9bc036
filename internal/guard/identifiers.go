// Package guard contains the request-pipeline guards that normalize tenant
// identifiers and enforce tenant/OU scope before any handler runs.
package guard

import "context"

// Header names accepted as the single source of truth for identifiers.
const (
	HeaderTenantID  = "X-Tenant-Id"
	HeaderCompanyID = "X-Company-Id"
)

// IdentifierSources collects every place a tenant or company id may arrive
// in. It is assembled exactly once by the Company Guard; later stages never
// re-scan raw transport objects.
type IdentifierSources struct {
	HeaderTenant  string
	HeaderCompany string
	BodyTenant    string
	BodyCompany   string
	QueryTenant   string
	QueryCompany  string
	PathCompany   string
	BodyOU        string
	QueryOU       string
}

// Identifiers carries the canonical, reconciled values forward.
type Identifiers struct {
	TenantID  string
	CompanyID string
	OUID      string
}

type identifiersContextKey struct{}

// ContextWithIdentifiers stores canonical identifiers in the context.
func ContextWithIdentifiers(ctx context.Context, ids Identifiers) context.Context {
	return context.WithValue(ctx, identifiersContextKey{}, ids)
}

// IdentifiersFromContext extracts canonical identifiers, if present.
func IdentifiersFromContext(ctx context.Context) (Identifiers, bool) {
	ids, ok := ctx.Value(identifiersContextKey{}).(Identifiers)
	return ids, ok
}
