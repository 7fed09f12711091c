// Package errors defines the sentinel errors shared across pilot-auth
// packages. Callers match them with errors.Is after wrapping.
package errors

import "errors"

// Login flow errors.
var (
	ErrUserCancelled          = errors.New("login cancelled by user")
	ErrLoginTimedOut          = errors.New("login timed out")
	ErrMissingCredentialField = errors.New("redirect callback missing credential field")
)

// Session lifecycle errors.
var (
	ErrRefreshRejected = errors.New("refresh token rejected")
	ErrNoSession       = errors.New("no session found")
	ErrStorageCorrupt  = errors.New("persisted session corrupt")
)
