package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haulpoint/haulpoint/internal/identity"
)

func TestHasPolicyTag(t *testing.T) {
	cases := []struct {
		role string
		tag  PolicyTag
		want bool
	}{
		{"superadmin", TagIdentityWrite, true},
		{"superadmin", TagFinanceWrite, true},
		{"tenant-admin", TagIdentityWrite, true},
		{"tenant-admin", TagFinanceWrite, false},
		{"compliance-officer", TagOperationsWrite, true},
		{"compliance-officer", TagIdentityWrite, false},
		{"finance-manager", TagFinanceWrite, true},
		{"finance-manager", TagOperationsWrite, false},
		{"auditor", TagOperationsWrite, false},
		{"Tenant-Admin", TagIdentityWrite, true}, // role names are case-insensitive
		{"unknown-role", TagIdentityWrite, false},
	}
	for _, tc := range cases {
		if got := HasPolicyTag(tc.role, tc.tag); got != tc.want {
			t.Errorf("HasPolicyTag(%q, %q) = %v, want %v", tc.role, tc.tag, got, tc.want)
		}
	}
}

func runPolicyTag(t *testing.T, tag PolicyTag, actor *identity.ActorContext) int {
	t.Helper()
	mw := Middleware{}
	handler := mw.RequirePolicyTag(tag)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if actor != nil {
		req = req.WithContext(identity.ContextWithActor(req.Context(), actor))
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res.Code
}

func TestRequirePolicyTag(t *testing.T) {
	if code := runPolicyTag(t, TagFinanceWrite, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor, got %d", code)
	}

	holder := &identity.ActorContext{UserID: "user-F", Roles: []string{"finance-manager"}}
	if code := runPolicyTag(t, TagFinanceWrite, holder); code != http.StatusOK {
		t.Fatalf("expected tag holder to pass, got %d", code)
	}
	if code := runPolicyTag(t, TagIdentityWrite, holder); code != http.StatusForbidden {
		t.Fatalf("expected 403 without tag, got %d", code)
	}

	super := &identity.ActorContext{UserID: "root", Roles: []string{"superadmin"}}
	if code := runPolicyTag(t, TagOperationsWrite, super); code != http.StatusOK {
		t.Fatalf("expected superadmin bypass, got %d", code)
	}
}
