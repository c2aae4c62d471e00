package domain

import "errors"

var (
	// ErrAuthenticationMissing means there is no session. Callers redirect to
	// sign-in instead of showing an error.
	ErrAuthenticationMissing = errors.New("authentication required")
	// ErrAuthorizationDenied is returned when the actor may not perform the
	// action (not an admin, or banned).
	ErrAuthorizationDenied = errors.New("access forbidden")
	// ErrBackendUnavailable covers network and configuration failures.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrValidation marks a malformed request rejected before any state change.
	ErrValidation = errors.New("validation failed")

	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
