package authority

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polaris/internal/store"
)

func TestPermissionsFor_FlattensAcrossServices(t *testing.T) {
	t.Parallel()

	perms := rolePerms("moderator", map[string][]string{
		"profile":  {string(PermAnyProfile)},
		"projects": {string(PermMyProjects), string(PermAnyProjects)},
	})
	resolver := NewResolver(perms, emptySources())

	set, err := resolver.permissionsFor(context.Background(), RoleModerator)
	require.NoError(t, err)

	assert.True(t, set.Has(PermAnyProfile))
	assert.True(t, set.Has(PermMyProjects))
	assert.True(t, set.Has(PermAnyProjects))
	assert.False(t, set.Has(PermAnyEvents))
	assert.Len(t, set, 3)
}

func TestPermissionsFor_UnknownRoleIsEmptyNotError(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(&fakePermissions{}, emptySources())

	set, err := resolver.permissionsFor(context.Background(), Role("ghost"))
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestCachedPermissionSource_ServesFromCacheWithinTTL(t *testing.T) {
	t.Parallel()

	source := rolePerms("expert", map[string][]string{
		"reviews": {string(PermMyReviews)},
	})
	cached := NewCachedPermissionSource(source, 30*time.Second)

	for i := 0; i < 5; i++ {
		record, err := cached.FindByRole(context.Background(), "expert")
		require.NoError(t, err)
		assert.Equal(t, "expert", record.Name)
	}
	assert.Equal(t, 1, source.calls)
}

func TestCachedPermissionSource_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	source := rolePerms("expert", map[string][]string{
		"reviews": {string(PermMyReviews)},
	})
	cached := NewCachedPermissionSource(source, 30*time.Second)

	current := time.Now()
	cached.now = func() time.Time { return current }

	_, err := cached.FindByRole(context.Background(), "expert")
	require.NoError(t, err)

	current = current.Add(31 * time.Second)

	_, err = cached.FindByRole(context.Background(), "expert")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls, "entry past its TTL must be refetched")
}

func TestCachedPermissionSource_CachesMisses(t *testing.T) {
	t.Parallel()

	source := &fakePermissions{}
	cached := NewCachedPermissionSource(source, 30*time.Second)

	for i := 0; i < 3; i++ {
		_, err := cached.FindByRole(context.Background(), "ghost")
		require.ErrorIs(t, err, store.ErrNotFound)
	}
	assert.Equal(t, 1, source.calls)
}

func TestCachedPermissionSource_DoesNotCacheTransientErrors(t *testing.T) {
	t.Parallel()

	storeDown := errors.New("connection refused")
	source := &fakePermissions{err: storeDown}
	cached := NewCachedPermissionSource(source, 30*time.Second)

	_, err := cached.FindByRole(context.Background(), "expert")
	require.ErrorIs(t, err, storeDown)
	_, err = cached.FindByRole(context.Background(), "expert")
	require.ErrorIs(t, err, storeDown)
	assert.Equal(t, 2, source.calls)
}

func TestResolver_UsesCachedSource(t *testing.T) {
	t.Parallel()

	source := rolePerms("user", map[string][]string{
		"projects": {string(PermMyProjects)},
	})
	resolver := NewResolver(NewCachedPermissionSource(source, time.Minute), emptySources())

	for i := 0; i < 4; i++ {
		decision, err := resolver.Authorize(context.Background(),
			claimsFor("U1", RoleUser),
			Request{Service: ServiceProjects, TargetSubjectID: "U1"},
		)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}
	assert.Equal(t, 1, source.calls)
}
