// Package common defines shared constants and sentinel errors used across
// the service, client and server layers of the data portal. Callers should
// use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound  = errors.New("not found")
	ErrPersistence = errors.New("persistence error")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Account directory errors.
	ErrDuplicateAccount   = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMalformedSession   = errors.New("malformed session data")

	// Client-side validation errors, raised before any service call.
	ErrEmptyFields      = errors.New("please fill in all fields")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")
	ErrPasswordMismatch = errors.New("passwords do not match")

	// Session token errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrExportDisabled is returned by the audit export when no bucket is set.
	ErrExportDisabled = errors.New("audit export is not configured")
)
