// Package authority decides, for an authenticated identity and a requested
// operation, whether the operation is allowed. Two tiers: a coarse
// operation-category check against fixed role allow-sets, and a fine-grained
// per-service check combining the role's persisted permission set with
// ownership of the targeted entity.
package authority

import (
	"context"
	"fmt"
)

type Resolver struct {
	permissions PermissionSource
	entities    EntitySources
}

func NewResolver(permissions PermissionSource, entities EntitySources) *Resolver {
	return &Resolver{
		permissions: permissions,
		entities:    entities,
	}
}

// Authorize evaluates one authorization request. On allow it returns a
// Decision with Allowed set; every other outcome is an error from the
// package's taxonomy (ErrUnauthenticated, ErrForbidden, ErrNotFound,
// ErrMisconfigured). Storage failures propagate as plain wrapped errors
// outside that taxonomy, so callers may retry them under their own policy.
//
// A Category check is exclusive: when the claim's role is outside the
// category's allow-set the request is denied outright, never retried against
// fine-grained permissions.
func (r *Resolver) Authorize(ctx context.Context, claims Claims, req Request) (Decision, error) {
	if claims.SubjectID == "" {
		return Decision{}, ErrUnauthenticated
	}

	if req.Category != "" {
		allowedRoles, ok := categoryRoles[req.Category]
		if !ok {
			return Decision{}, fmt.Errorf("unknown operation category %q: %w", req.Category, ErrMisconfigured)
		}
		if _, ok := allowedRoles[claims.Role]; ok {
			return Decision{Allowed: true, Reason: fmt.Sprintf("role %s permits %s", claims.Role, req.Category)}, nil
		}
		return Decision{Reason: fmt.Sprintf("role %s not in allow-set of %s", claims.Role, req.Category)},
			fmt.Errorf("role %q not permitted for %q: %w", claims.Role, req.Category, ErrForbidden)
	}

	if req.Service == "" {
		return Decision{}, fmt.Errorf("neither operation category nor service supplied: %w", ErrMisconfigured)
	}

	pair, ok := servicePermissions[req.Service]
	if !ok {
		return Decision{}, fmt.Errorf("unknown service %q: %w", req.Service, ErrMisconfigured)
	}

	perms, err := r.permissionsFor(ctx, claims.Role)
	if err != nil {
		return Decision{}, err
	}

	if req.TargetSubjectID != "" && req.TargetSubjectID == claims.SubjectID && perms.Has(pair.my) {
		return Decision{Allowed: true, Reason: "my-scope permission on own resource"}, nil
	}

	// Any-scope always suffices, ownership notwithstanding: a role granted
	// any-scope acts on its own resources too, without needing my-scope.
	if perms.Has(pair.any) {
		return Decision{Allowed: true, Reason: "any-scope permission"}, nil
	}

	if req.Entity != nil {
		owner, err := r.resolveOwner(ctx, *req.Entity)
		if err != nil {
			return Decision{}, err
		}
		// Re-apply the my-scope rule against the entity's recorded owner.
		// Any-scope was already ruled out above.
		if owner == claims.SubjectID && perms.Has(pair.my) {
			return Decision{Allowed: true, Reason: "my-scope permission on owned entity"}, nil
		}
		return Decision{Reason: fmt.Sprintf("%s %s not owned by subject or my-scope missing", req.Entity.Kind, req.Entity.ID)},
			fmt.Errorf("no permission for %s on %s %s: %w", req.Service, req.Entity.Kind, req.Entity.ID, ErrForbidden)
	}

	return Decision{Reason: fmt.Sprintf("no %s permission grants access", req.Service)},
		fmt.Errorf("no permission for service %q: %w", req.Service, ErrForbidden)
}
