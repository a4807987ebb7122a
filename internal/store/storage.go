package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Profiles interface {
		Create(context.Context, *Profile) error
		GetByUserID(context.Context, string) (*Profile, error)
		GetByEmail(context.Context, string) (*Profile, error)
		List(context.Context, ProfileFilter, int, int) ([]Profile, int, error)
		Update(context.Context, string, map[string]interface{}) error
		Delete(context.Context, string) error
		SetRole(context.Context, string, string) error
		SetPhotoURL(context.Context, string, string) error
	}
	Projects interface {
		Create(context.Context, *Project) error
		GetByID(context.Context, string) (*Project, error)
		ListByAuthor(context.Context, string, int, int) ([]Project, int, error)
		List(context.Context, int, int) ([]Project, int, error)
		Update(context.Context, string, map[string]interface{}) error
		Delete(context.Context, string) error
	}
	Events interface {
		Create(context.Context, *Event) error
		GetByID(context.Context, string) (*Event, error)
		List(context.Context, EventFilter, int, int) ([]Event, int, error)
		Update(context.Context, string, map[string]interface{}) error
		Delete(context.Context, string) error
		AddMember(context.Context, string, MemberRole, string) error
		RemoveMember(context.Context, string, MemberRole, string) error
		AttachProject(context.Context, string, string) error
		DetachProject(context.Context, string, string) error
	}
	Reviews interface {
		Create(context.Context, *Review) error
		GetByID(context.Context, string) (*Review, error)
		List(context.Context, int, int) ([]Review, int, error)
		ListByProject(context.Context, string) ([]Review, error)
		Update(context.Context, string, map[string]interface{}) error
		Delete(context.Context, string) error
	}
	Roles interface {
		FindByRole(context.Context, string) (*RoleRecord, error)
		List(context.Context) ([]RoleRecord, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Profiles: &ProfilesStore{db},
		Projects: &ProjectsStore{db},
		Events:   &EventsStore{db},
		Reviews:  &ReviewsStore{db},
		Roles:    &RolesStore{db},
	}
}
