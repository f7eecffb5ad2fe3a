package policy

import "errors"

var (
	// ErrMissingRule is returned when a required policy lookup has no active matching row.
	ErrMissingRule = errors.New("missing policy rule")
	// ErrInvalidSnapshot is returned when a policy document fails validation.
	ErrInvalidSnapshot = errors.New("invalid policy snapshot")
)
