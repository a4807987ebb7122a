package authority

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polaris/internal/store"
)

// fakePermissions serves canned role records and counts lookups.
type fakePermissions struct {
	records map[string]*store.RoleRecord
	err     error
	calls   int
}

func (f *fakePermissions) FindByRole(ctx context.Context, role string) (*store.RoleRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	record, ok := f.records[role]
	if !ok {
		return nil, store.ErrNotFound
	}
	return record, nil
}

func rolePerms(role string, perms map[string][]string) *fakePermissions {
	return &fakePermissions{records: map[string]*store.RoleRecord{
		role: {Name: role, Permissions: perms},
	}}
}

type fakeProjects struct {
	projects map[string]*store.Project
	calls    int
}

func (f *fakeProjects) GetByID(ctx context.Context, id string) (*store.Project, error) {
	f.calls++
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

type fakeEvents struct {
	events map[string]*store.Event
	calls  int
}

func (f *fakeEvents) GetByID(ctx context.Context, id string) (*store.Event, error) {
	f.calls++
	if e, ok := f.events[id]; ok {
		return e, nil
	}
	return nil, store.ErrNotFound
}

type fakeReviews struct {
	reviews map[string]*store.Review
	calls   int
}

func (f *fakeReviews) GetByID(ctx context.Context, id string) (*store.Review, error) {
	f.calls++
	if r, ok := f.reviews[id]; ok {
		return r, nil
	}
	return nil, store.ErrNotFound
}

type fakeProfiles struct {
	profiles map[string]*store.Profile
	calls    int
}

func (f *fakeProfiles) GetByUserID(ctx context.Context, userID string) (*store.Profile, error) {
	f.calls++
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

// explodingPermissions fails the test if the permission store is consulted.
type explodingPermissions struct{ t *testing.T }

func (e explodingPermissions) FindByRole(ctx context.Context, role string) (*store.RoleRecord, error) {
	e.t.Fatalf("permission store queried for role %q during a coarse-grained check", role)
	return nil, nil
}

// explodingEntities fails the test if any entity store is fetched from.
type explodingEntities struct{ t *testing.T }

func (e explodingEntities) GetByID(ctx context.Context, id string) (*store.Project, error) {
	e.t.Fatalf("entity store queried for %q", id)
	return nil, nil
}

func explodingSources(t *testing.T) EntitySources {
	return EntitySources{Projects: explodingEntities{t}}
}

func emptySources() EntitySources {
	return EntitySources{
		Projects: &fakeProjects{},
		Events:   &fakeEvents{},
		Reviews:  &fakeReviews{},
		Profiles: &fakeProfiles{},
	}
}

func claimsFor(subject string, role Role) Claims {
	return Claims{SubjectID: subject, Role: role, Email: subject + "@example.com"}
}

func TestAuthorize_Unauthenticated(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(explodingPermissions{t}, explodingSources(t))

	requests := []Request{
		{},
		{Category: CategoryHighLevel},
		{Service: ServiceProjects, TargetSubjectID: "U1"},
		{Service: ServiceProjects, Entity: &EntityRef{Kind: EntityProject, ID: "p1"}},
	}

	for _, req := range requests {
		_, err := resolver.Authorize(context.Background(), Claims{Role: RoleAdmin}, req)
		require.ErrorIs(t, err, ErrUnauthenticated)
	}
}

func TestAuthorize_CategoryAllowSets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category Category
		role     Role
		allowed  bool
	}{
		{CategoryHighLevel, RoleAdmin, true},
		{CategoryHighLevel, RoleModerator, true},
		{CategoryHighLevel, RoleEventManager, false},
		{CategoryHighLevel, RoleExpert, false},
		{CategoryHighLevel, RoleUser, false},
		{CategoryHighLevelEvent, RoleAdmin, true},
		{CategoryHighLevelEvent, RoleModerator, true},
		{CategoryHighLevelEvent, RoleEventManager, true},
		{CategoryHighLevelEvent, RoleExpert, false},
		{CategoryHighLevelEvent, RoleUser, false},
		{CategoryHighLevelReview, RoleAdmin, true},
		{CategoryHighLevelReview, RoleModerator, true},
		{CategoryHighLevelReview, RoleEventManager, true},
		{CategoryHighLevelReview, RoleExpert, true},
		{CategoryHighLevelReview, RoleUser, false},
	}

	for _, tc := range tests {
		// Coarse-grained checks must not touch the permission store or any
		// entity store, whichever way they decide.
		resolver := NewResolver(explodingPermissions{t}, explodingSources(t))

		decision, err := resolver.Authorize(context.Background(),
			claimsFor("U1", tc.role),
			Request{Category: tc.category},
		)
		if tc.allowed {
			require.NoError(t, err, "%s should allow %s", tc.category, tc.role)
			assert.True(t, decision.Allowed)
			assert.NotEmpty(t, decision.Reason)
		} else {
			require.ErrorIs(t, err, ErrForbidden, "%s should deny %s", tc.category, tc.role)
			assert.False(t, decision.Allowed)
		}
	}
}

func TestAuthorize_CategoryDenialNeverFallsBackToPermissions(t *testing.T) {
	t.Parallel()

	// A user holding every fine-grained permission is still denied on a
	// category it is not statically listed for.
	perms := rolePerms("user", map[string][]string{
		"projects": {string(PermMyProjects), string(PermAnyProjects)},
		"events":   {string(PermMyEvents), string(PermAnyEvents)},
	})
	resolver := NewResolver(perms, explodingSources(t))

	_, err := resolver.Authorize(context.Background(),
		claimsFor("U1", RoleUser),
		Request{Category: CategoryHighLevel},
	)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, perms.calls, "category denial must not consult the permission store")
}

func TestAuthorize_Misconfiguration(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(&fakePermissions{}, emptySources())

	tests := []struct {
		name string
		req  Request
	}{
		{"neither category nor service", Request{}},
		{"unknown category", Request{Category: "super-operation"}},
		{"unknown service", Request{Service: "payments"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolver.Authorize(context.Background(), claimsFor("U1", RoleAdmin), tc.req)
			require.ErrorIs(t, err, ErrMisconfigured)
			require.NotErrorIs(t, err, ErrForbidden)
		})
	}
}

func TestAuthorize_OwnershipSymmetry(t *testing.T) {
	t.Parallel()

	projects := &fakeProjects{projects: map[string]*store.Project{
		"p1": {ID: "p1", AuthorID: "U1"},
	}}
	perms := rolePerms("user", map[string][]string{
		"projects": {string(PermMyProjects)},
	})
	resolver := NewResolver(perms, EntitySources{Projects: projects})

	req := Request{Service: ServiceProjects, Entity: &EntityRef{Kind: EntityProject, ID: "p1"}}

	decision, err := resolver.Authorize(context.Background(), claimsFor("U1", RoleUser), req)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	_, err = resolver.Authorize(context.Background(), claimsFor("U2", RoleUser), req)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorize_AnyScopePrecedence(t *testing.T) {
	t.Parallel()

	// Any-scope alone grants access to an entity the subject does not own,
	// and decides before any entity fetch happens.
	projects := &fakeProjects{projects: map[string]*store.Project{
		"p1": {ID: "p1", AuthorID: "someone-else"},
	}}
	perms := rolePerms("moderator", map[string][]string{
		"projects": {string(PermAnyProjects)},
	})
	resolver := NewResolver(perms, EntitySources{Projects: projects})

	decision, err := resolver.Authorize(context.Background(),
		claimsFor("U1", RoleModerator),
		Request{Service: ServiceProjects, Entity: &EntityRef{Kind: EntityProject, ID: "p1"}},
	)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Zero(t, projects.calls, "any-scope grant must not fetch the entity")
}

func TestAuthorize_AnyScopeCoversOwnResources(t *testing.T) {
	t.Parallel()

	// A role holding only any-scope still acts on its own resources; my-scope
	// is not additionally required.
	perms := rolePerms("admin", map[string][]string{
		"profile": {string(PermAnyProfile)},
	})
	resolver := NewResolver(perms, emptySources())

	decision, err := resolver.Authorize(context.Background(),
		claimsFor("U1", RoleAdmin),
		Request{Service: ServiceProfile, TargetSubjectID: "U1"},
	)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestAuthorize_TargetSubjectMatch(t *testing.T) {
	t.Parallel()

	perms := rolePerms("user", map[string][]string{
		"profile": {string(PermMyProfile)},
	})
	resolver := NewResolver(perms, explodingSources(t))

	decision, err := resolver.Authorize(context.Background(),
		claimsFor("U1", RoleUser),
		Request{Service: ServiceProfile, TargetSubjectID: "U1"},
	)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// Mismatched target with no any-scope and no entity to fall back to.
	_, err = resolver.Authorize(context.Background(),
		claimsFor("U2", RoleUser),
		Request{Service: ServiceProfile, TargetSubjectID: "U1"},
	)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorize_TargetMismatchFallsThroughToEntity(t *testing.T) {
	t.Parallel()

	// The caller asserts a target subject that is not the claimant, but the
	// entity itself turns out to be owned by the claimant.
	projects := &fakeProjects{projects: map[string]*store.Project{
		"p1": {ID: "p1", AuthorID: "U2"},
	}}
	perms := rolePerms("user", map[string][]string{
		"projects": {string(PermMyProjects)},
	})
	resolver := NewResolver(perms, EntitySources{Projects: projects})

	decision, err := resolver.Authorize(context.Background(),
		claimsFor("U2", RoleUser),
		Request{
			Service:         ServiceProjects,
			TargetSubjectID: "U1",
			Entity:          &EntityRef{Kind: EntityProject, ID: "p1"},
		},
	)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, projects.calls)
}

func TestAuthorize_MissingEntityIsNotFound(t *testing.T) {
	t.Parallel()

	// Even a role with zero permissions gets NotFound, not Forbidden, for an
	// entity that does not exist.
	resolver := NewResolver(&fakePermissions{}, emptySources())

	_, err := resolver.Authorize(context.Background(),
		claimsFor("U1", RoleUser),
		Request{Service: ServiceProjects, Entity: &EntityRef{Kind: EntityProject, ID: "does-not-exist"}},
	)
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrForbidden)
}

func TestAuthorize_UnknownRole(t *testing.T) {
	t.Parallel()

	// A role absent from the permission store never allows via fine-grained
	// checks but may still pass a coarse-grained check it is listed for.
	resolver := NewResolver(&fakePermissions{}, emptySources())
	claims := claimsFor("U1", RoleModerator)

	_, err := resolver.Authorize(context.Background(), claims,
		Request{Service: ServiceProjects, TargetSubjectID: "U1"})
	require.ErrorIs(t, err, ErrForbidden)

	decision, err := resolver.Authorize(context.Background(), claims,
		Request{Category: CategoryHighLevel})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestAuthorize_ExpertReviewScenario(t *testing.T) {
	t.Parallel()

	reviews := &fakeReviews{reviews: map[string]*store.Review{
		"r1": {ID: "r1", ReviewerID: "R7"},
		"r2": {ID: "r2", ReviewerID: "R9"},
	}}
	perms := rolePerms("expert", map[string][]string{
		"reviews": {string(PermMyReviews)},
	})
	resolver := NewResolver(perms, EntitySources{Reviews: reviews})

	decision, err := resolver.Authorize(context.Background(),
		claimsFor("R7", RoleExpert),
		Request{Service: ServiceReviews, Entity: &EntityRef{Kind: EntityReview, ID: "r1"}},
	)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	_, err = resolver.Authorize(context.Background(),
		claimsFor("R7", RoleExpert),
		Request{Service: ServiceReviews, Entity: &EntityRef{Kind: EntityReview, ID: "r2"}},
	)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorize_AdminCategoryShortCircuits(t *testing.T) {
	t.Parallel()

	// The privileged path performs zero storage round-trips.
	resolver := NewResolver(explodingPermissions{t}, explodingSources(t))

	decision, err := resolver.Authorize(context.Background(),
		claimsFor("A1", RoleAdmin),
		Request{Category: CategoryHighLevel},
	)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestAuthorize_InfrastructureErrorPropagates(t *testing.T) {
	t.Parallel()

	storeDown := errors.New("connection refused")
	resolver := NewResolver(&fakePermissions{err: storeDown}, emptySources())

	_, err := resolver.Authorize(context.Background(),
		claimsFor("U1", RoleUser),
		Request{Service: ServiceProjects, TargetSubjectID: "U1"},
	)
	require.ErrorIs(t, err, storeDown)
	require.NotErrorIs(t, err, ErrForbidden)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestAuthorize_Idempotent(t *testing.T) {
	t.Parallel()

	projects := &fakeProjects{projects: map[string]*store.Project{
		"p1": {ID: "p1", AuthorID: "U1"},
	}}
	perms := rolePerms("user", map[string][]string{
		"projects": {string(PermMyProjects)},
	})
	resolver := NewResolver(perms, EntitySources{Projects: projects})

	req := Request{Service: ServiceProjects, Entity: &EntityRef{Kind: EntityProject, ID: "p1"}}

	first, err := resolver.Authorize(context.Background(), claimsFor("U1", RoleUser), req)
	require.NoError(t, err)
	second, err := resolver.Authorize(context.Background(), claimsFor("U1", RoleUser), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAuthorize_BothScopesIsLegal(t *testing.T) {
	t.Parallel()

	perms := rolePerms("moderator", map[string][]string{
		"events": {string(PermMyEvents), string(PermAnyEvents)},
	})
	resolver := NewResolver(perms, explodingSources(t))

	decision, err := resolver.Authorize(context.Background(),
		claimsFor("U1", RoleModerator),
		Request{Service: ServiceEvents, TargetSubjectID: "U9"},
	)
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "any-scope decides when both scopes are held")
}
