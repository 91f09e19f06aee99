package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. non-positive base amount, deadline in the past).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the caller is not allowed to perform the
// operation: a non-organizer touching organizer-only state, or a non-member
// acting on a trip. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when the operation collides with existing state,
// such as the finance lock window or a join request from an existing member.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrState is returned when the operation is well-formed and permitted but
// not valid at this point of the lifecycle: reporting after the deadline,
// enforcing before it, confirming a payment that was never reported.
// Handlers should map this to HTTP 409 with a distinct error code.
var ErrState = errors.New("invalid state")
