// Package common defines shared constants and sentinel errors used across
// the storefront server and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
	ErrValidation = errors.New("validation error")

	// Authentication errors.
	ErrMissingCredentials = errors.New("username and password are required")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("Invalid username or password")

	// Authorization gate errors.
	ErrMissingToken          = errors.New("Missing Bearer token")
	ErrInvalidOrExpiredToken = errors.New("Invalid or expired token")
	ErrForbidden             = errors.New("forbidden")
)
