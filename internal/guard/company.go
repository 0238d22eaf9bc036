package guard

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/haulpoint/haulpoint/internal/platform/httpx"
)

// CompanyGuard reconciles tenant/company identifiers arriving via header,
// body, query, or path. The headers win; any other source that disagrees
// rejects the request. It must run before the Scope Guard so the scope check
// always sees one unambiguous tenant identifier.
type CompanyGuard struct {
	Logger *slog.Logger
}

// Handler is the middleware entry point.
func (g CompanyGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sources, body, err := collectSources(r)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "malformed request body")
			return
		}
		ids, failMsg := reconcile(sources)
		if failMsg != "" {
			if g.Logger != nil {
				g.Logger.Warn("identifier reconciliation failed",
					slog.String("path", r.URL.Path),
					slog.String("reason", failMsg))
			}
			httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, failMsg)
			return
		}

		// Overwrite body and query copies with the canonical values so
		// downstream code never needs to pick a source.
		canonicalize(r, body, ids)

		next.ServeHTTP(w, r.WithContext(ContextWithIdentifiers(r.Context(), ids)))
	})
}

func collectSources(r *http.Request) (IdentifierSources, map[string]any, error) {
	sources := IdentifierSources{
		HeaderTenant:  strings.TrimSpace(r.Header.Get(HeaderTenantID)),
		HeaderCompany: strings.TrimSpace(r.Header.Get(HeaderCompanyID)),
	}

	query := r.URL.Query()
	sources.QueryTenant = strings.TrimSpace(query.Get("tenantId"))
	sources.QueryCompany = strings.TrimSpace(query.Get("companyId"))
	sources.QueryOU = strings.TrimSpace(query.Get("ouId"))

	if companyParam := chi.URLParam(r, "companyId"); companyParam != "" {
		sources.PathCompany = strings.TrimSpace(companyParam)
	} else if idParam := chi.URLParam(r, "id"); idParam != "" {
		sources.PathCompany = strings.TrimSpace(idParam)
	}

	body, err := readJSONBody(r)
	if err != nil {
		return sources, nil, err
	}
	if body != nil {
		sources.BodyTenant = stringField(body, "tenantId")
		sources.BodyCompany = stringField(body, "companyId")
		sources.BodyOU = stringField(body, "ouId")
	}
	return sources, body, nil
}

func reconcile(s IdentifierSources) (Identifiers, string) {
	if s.HeaderTenant == "" {
		return Identifiers{}, "x-tenant-id header required"
	}
	if s.HeaderCompany == "" {
		return Identifiers{}, "x-company-id header required"
	}
	if disagrees(s.HeaderTenant, s.BodyTenant) || disagrees(s.HeaderTenant, s.QueryTenant) {
		return Identifiers{}, "tenant id mismatch between header and body/query"
	}
	if disagrees(s.HeaderCompany, s.BodyCompany) || disagrees(s.HeaderCompany, s.QueryCompany) {
		return Identifiers{}, "company id mismatch between header and body/query"
	}
	if disagrees(s.HeaderCompany, s.PathCompany) {
		return Identifiers{}, "company id mismatch between header and path params"
	}
	ou := s.BodyOU
	if ou == "" {
		ou = s.QueryOU
	}
	return Identifiers{TenantID: s.HeaderTenant, CompanyID: s.HeaderCompany, OUID: ou}, ""
}

func canonicalize(r *http.Request, body map[string]any, ids Identifiers) {
	query := r.URL.Query()
	if query.Has("tenantId") {
		query.Set("tenantId", ids.TenantID)
	}
	if query.Has("companyId") {
		query.Set("companyId", ids.CompanyID)
	}
	r.URL.RawQuery = query.Encode()

	if body != nil {
		body["tenantId"] = ids.TenantID
		body["companyId"] = ids.CompanyID
		if payload, err := json.Marshal(body); err == nil {
			r.Body = io.NopCloser(bytes.NewReader(payload))
			r.ContentLength = int64(len(payload))
			r.Header.Set("Content-Length", strconv.Itoa(len(payload)))
		}
	}
}

func readJSONBody(r *http.Request) (map[string]any, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "json") {
		return nil, nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	// Restore the body for downstream decoders regardless of parse outcome.
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func stringField(body map[string]any, key string) string {
	if value, ok := body[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func disagrees(canonical, other string) bool {
	return other != "" && other != canonical
}
