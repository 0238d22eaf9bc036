package roles

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/haulpoint/haulpoint/internal/authz"
)

// Service applies the administrative rules over role records: system roles
// never change shape, and only their description may be edited.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create registers a new custom role. Names shadowing a built-in template
// are rejected so template resolution stays unambiguous.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Role, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if _, ok := authz.TemplateForRole(name); ok {
		return nil, ErrDuplicate
	}
	if _, err := s.repo.Get(ctx, name); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	now := s.now()
	role := &Role{
		Name:        name,
		Scope:       in.Scope,
		Description: in.Description,
		IsExclusive: in.IsExclusive,
		IsTemplate:  in.IsTemplate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info("role created", "role", role.Name, "scope", role.Scope)
	return role, nil
}

// UpdateInput carries the editable fields of a role.
type UpdateInput struct {
	Scope       *authz.RoleScope
	Description *string
	IsExclusive *bool
	IsTemplate  *bool
}

// Update edits a role. For system roles only the description is editable;
// any other change returns ErrSystemRole.
func (s *Service) Update(ctx context.Context, name string, in UpdateInput) (*Role, error) {
	role, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if role.IsSystem && (in.Scope != nil || in.IsExclusive != nil || in.IsTemplate != nil) {
		return nil, ErrSystemRole
	}
	if in.Scope != nil {
		if *in.Scope != authz.ScopeGlobal && *in.Scope != authz.ScopeTenant {
			return nil, ErrInvalidInput
		}
		role.Scope = *in.Scope
	}
	if in.Description != nil {
		role.Description = *in.Description
	}
	if in.IsExclusive != nil {
		role.IsExclusive = *in.IsExclusive
	}
	if in.IsTemplate != nil {
		role.IsTemplate = *in.IsTemplate
	}
	role.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Get loads one role by name, falling back to the built-in templates so the
// admin surface shows system roles even before any row exists.
func (s *Service) Get(ctx context.Context, name string) (*Role, error) {
	role, err := s.repo.Get(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if tmpl, ok := authz.TemplateForRole(name); ok {
		return builtinRole(tmpl), nil
	}
	return nil, ErrNotFound
}

// List merges stored roles with the built-in templates, stored rows winning
// on name collisions.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(stored))
	for _, r := range stored {
		seen[strings.ToLower(r.Name)] = struct{}{}
	}
	out := stored
	for _, tmpl := range authz.BuiltinTemplates() {
		if _, ok := seen[strings.ToLower(tmpl.Role)]; ok {
			continue
		}
		out = append(out, *builtinRole(tmpl))
	}
	return out, nil
}

// Delete removes a custom role. System roles cannot be deleted.
func (s *Service) Delete(ctx context.Context, name string) error {
	role, err := s.repo.Get(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if _, ok := authz.TemplateForRole(name); ok {
				return ErrSystemRole
			}
		}
		return err
	}
	if role.IsSystem {
		return ErrSystemRole
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info("role deleted", "role", name)
	return nil
}

func builtinRole(tmpl authz.PermissionTemplate) *Role {
	return &Role{
		Name:       tmpl.Role,
		Scope:      tmpl.Scope,
		IsSystem:   true,
		IsTemplate: true,
	}
}
