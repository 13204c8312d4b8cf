package model

import (
	"errors"
	"fmt"
)

// Error categories. Specific errors wrap exactly one of these so callers
// can branch on the category with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// Common errors used across the application
var (
	// Party errors
	ErrPartyNotFound      = fmt.Errorf("party %w", ErrNotFound)
	ErrInvalidGameType    = fmt.Errorf("%w: invalid game type", ErrInvalidInput)
	ErrInvalidCode        = fmt.Errorf("%w: party code is required", ErrInvalidInput)
	ErrInvalidStatus      = fmt.Errorf("%w: invalid party status", ErrInvalidInput)
	ErrPartyNotWaiting    = fmt.Errorf("%w: party has already started or finished", ErrInvalidInput)
	ErrNotHost            = fmt.Errorf("%w: only the host can do that", ErrForbidden)
	ErrInvalidTransition  = fmt.Errorf("%w: invalid party status transition", ErrConflict)
	ErrPartyCodeTaken     = fmt.Errorf("%w: party code already in use", ErrConflict)
	ErrCodeSpaceExhausted = fmt.Errorf("%w: could not allocate a unique party code", ErrConflict)
	ErrConcurrentUpdate   = fmt.Errorf("%w: party was modified concurrently", ErrConflict)

	// User errors
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrInvalidIdentity = fmt.Errorf("%w: identity must include subject and email", ErrInvalidInput)
)
