// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by email or provider identity.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when a write collides with the unique email index.
	// Adapters translate driver-specific unique violations into this error.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrPasswordTooLong is returned by registration when the password exceeds MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

	// ErrInvalidCredentials is returned by local login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrSessionNotFound is returned when a session cannot be found by ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when attempting to use an expired session.
	ErrSessionExpired = errors.New("session has expired")
)
