package moderation

import "errors"

// Sentinel errors surfaced by the moderation pipeline. Handlers map these to
// HTTP status codes; everything else is treated as an internal failure.
var (
	// ErrValidation indicates bad caller input (empty content, unknown author).
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates the caller lacks the admin role.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIllegalTransition indicates a state change outside the lifecycle
	// table, or one that lost a compare-and-set race. Surfaced as a conflict.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrInvalidAction indicates an unknown admin review action.
	ErrInvalidAction = errors.New("invalid action")

	// ErrNoCredentials indicates no classifier credential could be resolved.
	ErrNoCredentials = errors.New("no classifier credentials configured")
)
