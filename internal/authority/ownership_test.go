package authority

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polaris/internal/store"
)

func TestResolveOwner_PerKind(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(&fakePermissions{}, EntitySources{
		Projects: &fakeProjects{projects: map[string]*store.Project{
			"p1": {ID: "p1", AuthorID: "U1"},
		}},
		Events: &fakeEvents{events: map[string]*store.Event{
			"e1": {ID: "e1", Creator: store.EventCreator{UserID: "U2", FullName: "Eve Manager"}},
		}},
		Reviews: &fakeReviews{reviews: map[string]*store.Review{
			"r1": {ID: "r1", ReviewerID: "U3"},
		}},
		Profiles: &fakeProfiles{profiles: map[string]*store.Profile{
			"U4": {UserID: "U4"},
		}},
	})

	tests := []struct {
		ref   EntityRef
		owner string
	}{
		{EntityRef{Kind: EntityProject, ID: "p1"}, "U1"},
		{EntityRef{Kind: EntityEvent, ID: "e1"}, "U2"},
		{EntityRef{Kind: EntityReview, ID: "r1"}, "U3"},
		{EntityRef{Kind: EntityProfile, ID: "U4"}, "U4"},
	}

	for _, tc := range tests {
		owner, err := resolver.resolveOwner(context.Background(), tc.ref)
		require.NoError(t, err, "kind %s", tc.ref.Kind)
		assert.Equal(t, tc.owner, owner)
	}
}

func TestResolveOwner_Missing(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(&fakePermissions{}, emptySources())

	kinds := []EntityKind{EntityProject, EntityEvent, EntityReview, EntityProfile}
	for _, kind := range kinds {
		_, err := resolver.resolveOwner(context.Background(), EntityRef{Kind: kind, ID: "missing"})
		require.ErrorIs(t, err, ErrNotFound, "kind %s", kind)
	}
}

func TestResolveOwner_EventWithoutCreator(t *testing.T) {
	t.Parallel()

	// A persisted event with no creator is malformed; treated as not found,
	// never a crash.
	resolver := NewResolver(&fakePermissions{}, EntitySources{
		Events: &fakeEvents{events: map[string]*store.Event{
			"e1": {ID: "e1"},
		}},
	})

	_, err := resolver.resolveOwner(context.Background(), EntityRef{Kind: EntityEvent, ID: "e1"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveOwner_UnknownKind(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(&fakePermissions{}, emptySources())

	_, err := resolver.resolveOwner(context.Background(), EntityRef{Kind: "venue", ID: "x"})
	require.ErrorIs(t, err, ErrMisconfigured)
}
