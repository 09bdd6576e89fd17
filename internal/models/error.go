package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountDisabled  = errors.New("account is disabled")
	ErrAccountSuspended = errors.New("account is suspended")

	// ErrAccountLocked is returned when the failed-login counter for an
	// identifier has reached the lockout threshold. It must never reveal
	// whether the supplied credentials would have been valid.
	ErrAccountLocked = errors.New("account is temporarily locked")
)
