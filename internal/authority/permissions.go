package authority

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"polaris/internal/store"
)

// PermissionSource looks up the persisted permission record of a role.
// A role without a record reports store.ErrNotFound.
type PermissionSource interface {
	FindByRole(ctx context.Context, role string) (*store.RoleRecord, error)
}

// PermissionSet is a role's flattened permission strings across services.
type PermissionSet map[Permission]struct{}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// permissionsFor resolves a role to its flattened permission set. An unknown
// role is a data inconsistency and degrades to zero permissions, never an
// error; the coarse-grained path is evaluated independently of this lookup.
func (r *Resolver) permissionsFor(ctx context.Context, role Role) (PermissionSet, error) {
	record, err := r.permissions.FindByRole(ctx, string(role))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return PermissionSet{}, nil
		}
		return nil, fmt.Errorf("fetch permissions for role %q: %w", role, err)
	}

	set := make(PermissionSet)
	for _, perms := range record.Permissions {
		for _, p := range perms {
			set[Permission(p)] = struct{}{}
		}
	}
	return set, nil
}

// CachedPermissionSource decorates a PermissionSource with a TTL cache.
// Role permissions are read on every decision but change rarely; the TTL
// bounds how long a revoked permission stays effective. Transient lookup
// failures are never cached.
type CachedPermissionSource struct {
	source PermissionSource
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]permissionCacheEntry
}

type permissionCacheEntry struct {
	record    *store.RoleRecord
	missing   bool
	expiresAt time.Time
}

func NewCachedPermissionSource(source PermissionSource, ttl time.Duration) *CachedPermissionSource {
	return &CachedPermissionSource{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]permissionCacheEntry),
	}
}

func (c *CachedPermissionSource) FindByRole(ctx context.Context, role string) (*store.RoleRecord, error) {
	c.mu.Lock()
	entry, ok := c.entries[role]
	c.mu.Unlock()

	if ok && c.now().Before(entry.expiresAt) {
		if entry.missing {
			return nil, store.ErrNotFound
		}
		return entry.record, nil
	}

	record, err := c.source.FindByRole(ctx, role)
	switch {
	case err == nil:
		c.store(role, permissionCacheEntry{record: record})
	case errors.Is(err, store.ErrNotFound):
		c.store(role, permissionCacheEntry{missing: true})
	default:
		return nil, err
	}
	return record, err
}

func (c *CachedPermissionSource) store(role string, entry permissionCacheEntry) {
	entry.expiresAt = c.now().Add(c.ttl)
	c.mu.Lock()
	c.entries[role] = entry
	c.mu.Unlock()
}
