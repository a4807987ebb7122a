package authority

import "time"

// Role is the closed set of platform roles. Permissions are explicit per
// role; no privilege hierarchy is derived from these names.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleModerator    Role = "moderator"
	RoleEventManager Role = "event_manager"
	RoleExpert       Role = "expert"
	RoleUser         Role = "user"
)

// Service names the four permission scopes of the platform.
type Service string

const (
	ServiceProfile  Service = "profile"
	ServiceProjects Service = "projects"
	ServiceEvents   Service = "events"
	ServiceReviews  Service = "reviews"
)

// Category is a coarse-grained operation class checked against a fixed role
// allow-set, independent of any specific resource.
type Category string

const (
	CategoryHighLevel       Category = "high-level_operation"
	CategoryHighLevelEvent  Category = "high-level_event_operation"
	CategoryHighLevelReview Category = "high-level_review_operation"
)

// Permission is an opaque identifier stored in a role's permission set.
type Permission string

const (
	PermMyProfile   Permission = "crud_my_profile_data"
	PermAnyProfile  Permission = "crud_any_profile_data"
	PermMyProjects  Permission = "crud_my_projects"
	PermAnyProjects Permission = "crud_any_projects"
	PermMyEvents    Permission = "crud_my_events"
	PermAnyEvents   Permission = "crud_any_events"
	PermMyReviews   Permission = "crud_my_reviews"
	PermAnyReviews  Permission = "crud_any_reviews"
)

// categoryRoles maps each operation category to the roles it admits. Extend
// only by adding entries; category names are never inferred from free text.
var categoryRoles = map[Category]map[Role]struct{}{
	CategoryHighLevel: {
		RoleAdmin:     {},
		RoleModerator: {},
	},
	CategoryHighLevelEvent: {
		RoleAdmin:        {},
		RoleModerator:    {},
		RoleEventManager: {},
	},
	CategoryHighLevelReview: {
		RoleAdmin:        {},
		RoleModerator:    {},
		RoleEventManager: {},
		RoleExpert:       {},
	},
}

// permissionPair is the fixed (my-scope, any-scope) pair of a service.
type permissionPair struct {
	my  Permission
	any Permission
}

var servicePermissions = map[Service]permissionPair{
	ServiceProfile:  {my: PermMyProfile, any: PermAnyProfile},
	ServiceProjects: {my: PermMyProjects, any: PermAnyProjects},
	ServiceEvents:   {my: PermMyEvents, any: PermAnyEvents},
	ServiceReviews:  {my: PermMyReviews, any: PermAnyReviews},
}

// EntityKind is the closed set of protected entity kinds.
type EntityKind string

const (
	EntityProject EntityKind = "project"
	EntityEvent   EntityKind = "event"
	EntityReview  EntityKind = "review"
	EntityProfile EntityKind = "profile"
)

// EntityRef addresses one protected entity for ownership resolution.
type EntityRef struct {
	Kind EntityKind
	ID   string
}

// Claims is the decoded, already-authenticated identity for the current
// request. It is never persisted here.
type Claims struct {
	SubjectID string
	Role      Role
	Email     string
	ExpiresAt time.Time
}

// Request describes one authorization question. Exactly one of Category or
// Service must be set; TargetSubjectID and Entity refine a Service check.
type Request struct {
	Category        Category
	Service         Service
	TargetSubjectID string
	Entity          *EntityRef
}

// Decision is the transient outcome of an authorization check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}
