package guard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func routeRequest(t *testing.T, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return httptest.NewRecorder(), req
}

func TestCompanyGuardRequiresHeaders(t *testing.T) {
	g := CompanyGuard{}
	called := false
	handler := g.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	res, req := routeRequest(t, http.MethodPost, "/v", "", map[string]string{"x-company-id": "CO-1"})
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without tenant header, got %d", res.Code)
	}
	if called {
		t.Fatalf("handler must not run on rejection")
	}

	res, req = routeRequest(t, http.MethodPost, "/v", "", map[string]string{"x-tenant-id": "T-1"})
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without company header, got %d", res.Code)
	}

	// Blank after trimming is the same as absent.
	res, req = routeRequest(t, http.MethodPost, "/v", "", map[string]string{"x-tenant-id": "  ", "x-company-id": "CO-1"})
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank tenant header, got %d", res.Code)
	}
}

func TestCompanyGuardRejectsBodyMismatch(t *testing.T) {
	g := CompanyGuard{}
	handler := g.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))

	res, req := routeRequest(t, http.MethodPost, "/v", `{"tenantId":"T-OTHER"}`, map[string]string{
		"x-tenant-id":  "T-1",
		"x-company-id": "CO-1",
	})
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on tenant body mismatch, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "body/query") {
		t.Fatalf("expected body/query mismatch message, got %s", res.Body.String())
	}
}

func TestCompanyGuardRejectsQueryMismatch(t *testing.T) {
	g := CompanyGuard{}
	handler := g.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))

	res, req := routeRequest(t, http.MethodPost, "/v?companyId=CO-OTHER", "", map[string]string{
		"x-tenant-id":  "T-1",
		"x-company-id": "CO-1",
	})
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on company query mismatch, got %d", res.Code)
	}
}

func TestCompanyGuardRejectsPathParamMismatch(t *testing.T) {
	g := CompanyGuard{}
	router := chi.NewRouter()
	router.With(g.Handler).Post("/companies/{companyId}", func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	})

	res, req := routeRequest(t, http.MethodPost, "/companies/CO-OTHER", "", map[string]string{
		"x-tenant-id":  "T-1",
		"x-company-id": "CO-1",
	})
	router.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on path mismatch, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "path params") {
		t.Fatalf("expected path params mismatch message, got %s", res.Body.String())
	}
}

func TestCompanyGuardCanonicalizesForward(t *testing.T) {
	g := CompanyGuard{}
	var seenBody map[string]any
	var seenIDs Identifiers
	var seenQuery string
	handler := g.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&seenBody)
		seenIDs, _ = IdentifiersFromContext(r.Context())
		seenQuery = r.URL.Query().Get("tenantId")
	}))

	// Body and query agree with the headers; blanks get filled in.
	res, req := routeRequest(t, http.MethodPost, "/v?tenantId=T-1", `{"op":"vehicle.decommission","ouId":"OU-9"}`, map[string]string{
		"x-tenant-id":  "T-1",
		"x-company-id": "CO-1",
	})
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d: %s", res.Code, res.Body.String())
	}
	if seenBody["tenantId"] != "T-1" || seenBody["companyId"] != "CO-1" {
		t.Fatalf("expected canonical ids written into body, got %v", seenBody)
	}
	if seenBody["op"] != "vehicle.decommission" {
		t.Fatalf("expected original body fields preserved, got %v", seenBody)
	}
	if seenQuery != "T-1" {
		t.Fatalf("expected canonical tenant in query, got %s", seenQuery)
	}
	if seenIDs.TenantID != "T-1" || seenIDs.CompanyID != "CO-1" || seenIDs.OUID != "OU-9" {
		t.Fatalf("expected identifiers in context, got %+v", seenIDs)
	}
}

func TestCompanyGuardMatchingSourcesPass(t *testing.T) {
	g := CompanyGuard{}
	handler := g.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	res, req := routeRequest(t, http.MethodPost, "/v", `{"tenantId":"T-1","companyId":"CO-1"}`, map[string]string{
		"x-tenant-id":  "T-1",
		"x-company-id": "CO-1",
	})
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected agreement to pass, got %d", res.Code)
	}
}

func TestIdentifiersContextRoundTrip(t *testing.T) {
	ids := Identifiers{TenantID: "T-1", CompanyID: "CO-1"}
	ctx := ContextWithIdentifiers(context.Background(), ids)
	got, ok := IdentifiersFromContext(ctx)
	if !ok || got != ids {
		t.Fatalf("expected identifiers round trip, got %+v ok=%v", got, ok)
	}
}
