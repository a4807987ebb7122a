package authority

import (
	"context"
	"errors"
	"fmt"

	"polaris/internal/store"
)

// The resolver fetches entities through these narrow getters so tests can
// substitute fakes and handlers never hand it more storage than it needs.

type ProjectGetter interface {
	GetByID(ctx context.Context, id string) (*store.Project, error)
}

type EventGetter interface {
	GetByID(ctx context.Context, id string) (*store.Event, error)
}

type ReviewGetter interface {
	GetByID(ctx context.Context, id string) (*store.Review, error)
}

type ProfileGetter interface {
	GetByUserID(ctx context.Context, userID string) (*store.Profile, error)
}

// EntitySources bundles one getter per protected entity kind.
type EntitySources struct {
	Projects ProjectGetter
	Events   EventGetter
	Reviews  ReviewGetter
	Profiles ProfileGetter
}

// resolveOwner fetches the referenced entity and extracts its owning subject
// id. A storage miss surfaces as ErrNotFound; everything else propagates as a
// transient fetch error.
func (r *Resolver) resolveOwner(ctx context.Context, ref EntityRef) (string, error) {
	switch ref.Kind {
	case EntityProject:
		project, err := r.entities.Projects.GetByID(ctx, ref.ID)
		if err != nil {
			return "", entityFetchError(ref, err)
		}
		return project.AuthorID, nil

	case EntityEvent:
		event, err := r.entities.Events.GetByID(ctx, ref.ID)
		if err != nil {
			return "", entityFetchError(ref, err)
		}
		if event.Creator.UserID == "" {
			// Malformed row with no recorded creator. Treated as not found
			// rather than crashing or silently denying.
			return "", fmt.Errorf("event %s has no recorded owner: %w", ref.ID, ErrNotFound)
		}
		return event.Creator.UserID, nil

	case EntityReview:
		review, err := r.entities.Reviews.GetByID(ctx, ref.ID)
		if err != nil {
			return "", entityFetchError(ref, err)
		}
		return review.ReviewerID, nil

	case EntityProfile:
		// The profile's subject is the profile itself; the fetch only
		// confirms the row exists.
		profile, err := r.entities.Profiles.GetByUserID(ctx, ref.ID)
		if err != nil {
			return "", entityFetchError(ref, err)
		}
		return profile.UserID, nil

	default:
		return "", fmt.Errorf("unknown entity kind %q: %w", ref.Kind, ErrMisconfigured)
	}
}

func entityFetchError(ref EntityRef, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", ref.Kind, ref.ID, ErrNotFound)
	}
	return fmt.Errorf("fetch %s %s: %w", ref.Kind, ref.ID, err)
}
