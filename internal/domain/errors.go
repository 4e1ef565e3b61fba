package domain

import "errors"

var (
	// ErrTenantNotResolved means no tenant identity could be established
	// for the caller. Never retried; surfaced as an auth-layer rejection.
	ErrTenantNotResolved = errors.New("tenant not resolved")

	// ErrNotFound means the entity does not exist for the resolved tenant.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument means a required field is missing or malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict means a versioned update lost to a concurrent writer.
	ErrConflict = errors.New("version conflict")

	// ErrInvalidTransition means the (status, action) pair is not allowed
	// by the workflow transition table.
	ErrInvalidTransition = errors.New("invalid workflow transition")
)
