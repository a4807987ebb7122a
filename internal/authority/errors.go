package authority

import "errors"

var (
	// ErrUnauthenticated means no usable identity claim was presented.
	ErrUnauthenticated = errors.New("no authenticated identity")

	// ErrForbidden means the identity is valid but no rule grants access.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrNotFound means the entity referenced for ownership resolution does
	// not exist. Kept distinct from ErrForbidden so callers can tell "the
	// resource is gone" from "you may not touch it".
	ErrNotFound = errors.New("entity not found")

	// ErrMisconfigured marks a caller-side contract violation: missing or
	// unrecognized category/service. A bug, not a runtime denial.
	ErrMisconfigured = errors.New("authorization request misconfigured")
)
