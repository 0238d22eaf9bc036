package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Hour), mr
}

func TestIssueAndLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	actor := &ActorContext{
		UserID: "user-A",
		Email:  "ops@tenant.test",
		Roles:  []string{"compliance-officer"},
		Claims: Claims{Tenants: []string{"TENANT_1"}, OUs: []string{"OU-7"}},
	}
	id, err := store.Issue(ctx, actor)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, actor, loaded)
}

func TestLoadUnknownSession(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Load(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestIssueRequiresUserID(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Issue(context.Background(), &ActorContext{})
	require.Error(t, err)
	_, err = store.Issue(context.Background(), nil)
	require.Error(t, err)
}

func TestRevokeRemovesSession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Issue(ctx, &ActorContext{UserID: "user-A"})
	require.NoError(t, err)
	require.NoError(t, store.Revoke(ctx, id))

	_, err = store.Load(ctx, id)
	require.ErrorIs(t, err, ErrSessionNotFound)

	// Revoking twice is harmless.
	require.NoError(t, store.Revoke(ctx, id))
}

func TestSessionExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	id, err := store.Issue(ctx, &ActorContext{UserID: "user-A"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = store.Load(ctx, id)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
