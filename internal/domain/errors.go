package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can build response envelopes without leaking
// infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrNotClockedIn is the expected state of a clock-out with no open
	// session for the day. Not a system fault.
	ErrNotClockedIn = errors.New("not currently clocked in")
	// ErrNothingToClose is returned by force-clockout when the user has no
	// open sessions on any day.
	ErrNothingToClose = errors.New("no open sessions to close")
	// ErrStorage masks any persistence failure; the raw cause is logged at
	// the operation boundary, never surfaced to callers.
	ErrStorage = errors.New("storage unavailable")
)

// Roles recognised by the authorization middleware.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
