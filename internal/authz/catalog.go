// Package authz resolves role permission templates into effective permission
// sets and enforces them at guard points.
package authz

import "sort"

// Identity permissions.
const (
	PermUserView    = "identity.user.view"
	PermUserUpdate  = "identity.user.update"
	PermRoleView    = "identity.role.view"
	PermRoleUpdate  = "identity.role.update"
	PermSessionList = "identity.session.list"
)

// Fleet operations permissions.
const (
	PermVehicleView         = "fleet.vehicle.view"
	PermVehicleUpdate       = "fleet.vehicle.update"
	PermVehicleDecommission = "fleet.vehicle.decommission.approve"
	PermDriverView          = "fleet.driver.view"
	PermDriverUpdate        = "fleet.driver.update"
)

// Compliance and document permissions.
const (
	PermDocsView    = "docs.view"
	PermDocsUpload  = "docs.upload"
	PermDocsArchive = "docs.archive"
	PermInspectView = "compliance.inspection.view"
	PermInspectSign = "compliance.inspection.approve"
)

// Finance permissions.
const (
	PermFinanceView     = "finance.invoice.view"
	PermFinanceTaxWrite = "finance.tax.write"
	PermFinanceApprove  = "finance.invoice.approve"
)

// Approval workflow permissions.
const (
	PermApprovalStart  = "operations.approval.start"
	PermApprovalReview = "operations.approval.review"
	PermApprovalView   = "operations.approval.view"
)

// PolicyTag is a coarse capability label for guards that only need a yes/no
// on a capability class rather than a specific permission key.
type PolicyTag string

const (
	TagIdentityWrite   PolicyTag = "Identity-Write"
	TagFinanceWrite    PolicyTag = "Finance-Write"
	TagOperationsWrite PolicyTag = "Operations-Write"
)

// RoleScope bounds where a role applies.
type RoleScope string

const (
	ScopeGlobal RoleScope = "global"
	ScopeTenant RoleScope = "tenant"
)

// Role metadata for the built-in roles. Roles are referenced by name, not by
// synthetic id, throughout the policy tables.
type Role struct {
	Name        string
	Scope       RoleScope
	IsSystem    bool
	IsExclusive bool
	IsTemplate  bool
}

var roleTags = map[string][]PolicyTag{
	"superadmin":         {TagIdentityWrite, TagFinanceWrite, TagOperationsWrite},
	"tenant-admin":       {TagIdentityWrite, TagOperationsWrite},
	"compliance-officer": {TagOperationsWrite},
	"finance-manager":    {TagFinanceWrite},
	"auditor":            nil,
}

// HasPolicyTag reports whether the role carries the capability class.
func HasPolicyTag(role string, tag PolicyTag) bool {
	for _, t := range roleTags[normalizeRole(role)] {
		if t == tag {
			return true
		}
	}
	return false
}

var builtinTemplates = map[string]PermissionTemplate{
	"superadmin": {
		Role:  "superadmin",
		Scope: ScopeGlobal,
		Allow: allPermissionKeys(),
	},
	"tenant-admin": {
		Role:  "tenant-admin",
		Scope: ScopeTenant,
		Allow: []string{
			PermUserView, PermUserUpdate, PermRoleView, PermSessionList,
			PermVehicleView, PermVehicleUpdate, PermDriverView, PermDriverUpdate,
			PermDocsView, PermDocsUpload, PermDocsArchive,
			PermInspectView, PermFinanceView,
			PermApprovalStart, PermApprovalReview, PermApprovalView,
		},
		Deny: []string{"finance.*:write"},
	},
	"compliance-officer": {
		Role:  "compliance-officer",
		Scope: ScopeTenant,
		Allow: []string{
			PermVehicleView, PermDriverView,
			PermDocsView, PermDocsUpload, PermDocsArchive,
			PermInspectView, PermInspectSign,
			PermApprovalStart, PermApprovalReview, PermApprovalView,
		},
	},
	"finance-manager": {
		Role:  "finance-manager",
		Scope: ScopeTenant,
		Allow: []string{
			PermFinanceView, PermFinanceTaxWrite, PermFinanceApprove,
			PermApprovalView,
		},
	},
	"auditor": {
		Role:  "auditor",
		Scope: ScopeTenant,
		Allow: []string{
			PermUserView, PermRoleView, PermVehicleView, PermDriverView,
			PermDocsView, PermInspectView, PermFinanceView, PermApprovalView,
		},
		Deny: []string{"*:write"},
	},
}

// BuiltinTemplates returns the built-in role templates sorted by role name.
func BuiltinTemplates() []PermissionTemplate {
	names := make([]string, 0, len(builtinTemplates))
	for name := range builtinTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]PermissionTemplate, 0, len(names))
	for _, name := range names {
		out = append(out, builtinTemplates[name])
	}
	return out
}

// TemplateForRole returns the permission template registered for a role.
func TemplateForRole(role string) (PermissionTemplate, bool) {
	tmpl, ok := builtinTemplates[normalizeRole(role)]
	return tmpl, ok
}

func allPermissionKeys() []string {
	return []string{
		PermUserView, PermUserUpdate, PermRoleView, PermRoleUpdate, PermSessionList,
		PermVehicleView, PermVehicleUpdate, PermVehicleDecommission,
		PermDriverView, PermDriverUpdate,
		PermDocsView, PermDocsUpload, PermDocsArchive,
		PermInspectView, PermInspectSign,
		PermFinanceView, PermFinanceTaxWrite, PermFinanceApprove,
		PermApprovalStart, PermApprovalReview, PermApprovalView,
	}
}
