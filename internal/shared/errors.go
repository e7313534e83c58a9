package shared

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("already exists")
	// ErrValidation indicates the request payload failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates missing or malformed credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates valid credentials with insufficient privilege.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPartialSideEffect indicates the primary mutation committed but a
	// dependent update failed. Callers must be able to tell this apart from
	// "nothing happened".
	ErrPartialSideEffect = errors.New("secondary update failed")
)
