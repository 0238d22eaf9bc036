package authz

import (
	"regexp"
	"sort"
	"strings"
)

// WildcardMarker ends a deny pattern that matches every key under its prefix.
const WildcardMarker = "*"

// WriteMarker flags a deny pattern as applying to mutating permissions only.
const WriteMarker = ":write"

// PermissionTemplate pairs an allow list with deny patterns for one role.
type PermissionTemplate struct {
	Role  string
	Scope RoleScope
	Allow []string
	Deny  []string
}

// PermissionSet is a derived, never-persisted effective permission set.
type PermissionSet map[string]struct{}

// Has reports whether the key is in the set.
func (s PermissionSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the set contents sorted for stable output.
func (s PermissionSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mutatingKeyPattern is a textual heuristic over permission keys. It can
// misclassify keys that contain these words as substrings of unrelated terms;
// that behavior is pinned by tests and kept intentionally.
var mutatingKeyPattern = regexp.MustCompile(`(?i)(write|update|approve)`)

// IsMutatingPermissionKey reports whether a key textually looks like a
// mutating action. Write-only deny patterns subtract only such keys.
func IsMutatingPermissionKey(key string) bool {
	return mutatingKeyPattern.MatchString(key)
}

// ResolveEffectivePermissions computes allow minus deny for a template. Deny
// patterns only subtract: they never discover permissions outside the allow
// list. A nil template yields an empty set; the resolver never fails.
func ResolveEffectivePermissions(tmpl *PermissionTemplate) PermissionSet {
	set := make(PermissionSet)
	if tmpl == nil {
		return set
	}
	for _, key := range tmpl.Allow {
		if key = strings.TrimSpace(key); key != "" {
			set[key] = struct{}{}
		}
	}
	for _, pattern := range tmpl.Deny {
		applyDeny(set, pattern)
	}
	return set
}

func applyDeny(set PermissionSet, pattern string) {
	writeOnly := strings.Contains(pattern, WriteMarker)
	prefix := strings.ReplaceAll(pattern, WriteMarker, "")
	prefix = strings.ReplaceAll(prefix, WildcardMarker, "")
	for key := range set {
		// An empty prefix (pattern was only a wildcard) matches every key.
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		if writeOnly && !IsMutatingPermissionKey(key) {
			continue
		}
		delete(set, key)
	}
}

// EffectiveForRoles unions the effective sets of every named role.
func EffectiveForRoles(roles []string) PermissionSet {
	merged := make(PermissionSet)
	for _, role := range roles {
		tmpl, ok := TemplateForRole(role)
		if !ok {
			continue
		}
		for key := range ResolveEffectivePermissions(&tmpl) {
			merged[key] = struct{}{}
		}
	}
	return merged
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
