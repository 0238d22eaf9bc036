// Package roles administers the role records referenced by name from the
// permission templates.
package roles

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/haulpoint/haulpoint/internal/authz"
)

// Role is the administrative view of a role. Policy tables reference roles
// by name, never by synthetic id.
type Role struct {
	Name        string          `json:"name"`
	Scope       authz.RoleScope `json:"scope"`
	Description string          `json:"description,omitempty"`
	IsSystem    bool            `json:"isSystem"`
	IsExclusive bool            `json:"isExclusive"`
	IsTemplate  bool            `json:"isTemplate"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CreateInput carries the fields accepted on role creation.
type CreateInput struct {
	Name        string
	Scope       authz.RoleScope
	Description string
	IsExclusive bool
	IsTemplate  bool
}

// Validate checks create input coherence.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: role name required", ErrInvalidInput)
	}
	if in.Scope != authz.ScopeGlobal && in.Scope != authz.ScopeTenant {
		return fmt.Errorf("%w: scope must be global or tenant", ErrInvalidInput)
	}
	return nil
}

// roleScope maps a stored scope string back to the catalog type; anything
// unrecognized is treated as tenant scoped.
func roleScope(s string) authz.RoleScope {
	if strings.EqualFold(s, string(authz.ScopeGlobal)) {
		return authz.ScopeGlobal
	}
	return authz.ScopeTenant
}

// ErrInvalidInput marks missing or malformed caller input.
var ErrInvalidInput = errors.New("roles: invalid input")

// ErrNotFound indicates the named role does not exist.
var ErrNotFound = errors.New("roles: not found")

// ErrDuplicate indicates the role name is already taken.
var ErrDuplicate = errors.New("roles: name already exists")

// ErrSystemRole is returned when mutating a system role beyond the allowed
// administrative description edit.
var ErrSystemRole = errors.New("roles: system role is immutable")
