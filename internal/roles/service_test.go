package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulpoint/haulpoint/internal/authz"
)

func TestCreateRejectsBuiltinNames(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	_, err := svc.Create(context.Background(), CreateInput{Name: "auditor", Scope: authz.ScopeTenant})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateAndGet(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	role, err := svc.Create(ctx, CreateInput{Name: "dispatch-lead", Scope: authz.ScopeTenant, Description: "yard dispatch"})
	require.NoError(t, err)
	assert.False(t, role.IsSystem)

	got, err := svc.Get(ctx, "dispatch-lead")
	require.NoError(t, err)
	assert.Equal(t, "yard dispatch", got.Description)

	_, err = svc.Create(ctx, CreateInput{Name: "dispatch-lead", Scope: authz.ScopeTenant})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Scope: authz.ScopeTenant})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, CreateInput{Name: "x", Scope: authz.RoleScope("regional")})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSystemRoleOnlyDescriptionEditable(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &Role{Name: "superadmin", Scope: authz.ScopeGlobal, IsSystem: true}))

	desc := "platform operators"
	updated, err := svc.Update(ctx, "superadmin", UpdateInput{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)

	scope := authz.ScopeTenant
	_, err = svc.Update(ctx, "superadmin", UpdateInput{Scope: &scope})
	require.ErrorIs(t, err, ErrSystemRole)

	exclusive := true
	_, err = svc.Update(ctx, "superadmin", UpdateInput{IsExclusive: &exclusive})
	require.ErrorIs(t, err, ErrSystemRole)
}

func TestDeleteProtectsSystemRoles(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	// Built-in role without a stored row.
	require.ErrorIs(t, svc.Delete(ctx, "auditor"), ErrSystemRole)

	require.NoError(t, repo.Insert(ctx, &Role{Name: "tenant-admin", IsSystem: true}))
	require.ErrorIs(t, svc.Delete(ctx, "tenant-admin"), ErrSystemRole)

	_, err := svc.Create(ctx, CreateInput{Name: "dispatch-lead", Scope: authz.ScopeTenant})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "dispatch-lead"))
	_, err = svc.Get(ctx, "dispatch-lead")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListMergesBuiltins(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "dispatch-lead", Scope: authz.ScopeTenant})
	require.NoError(t, err)

	out, err := svc.List(ctx)
	require.NoError(t, err)

	names := make(map[string]bool, len(out))
	for _, r := range out {
		names[r.Name] = true
	}
	for _, want := range []string{"dispatch-lead", "superadmin", "tenant-admin", "compliance-officer", "finance-manager", "auditor"} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestGetFallsBackToBuiltinTemplate(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	role, err := svc.Get(context.Background(), "compliance-officer")
	require.NoError(t, err)
	assert.True(t, role.IsSystem)
	assert.Equal(t, authz.ScopeTenant, role.Scope)
}
