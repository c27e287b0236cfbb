// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness violation, e.g. a duplicate tenant schema
// or a second owner membership for the same user and tenant.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates malformed input. Messages are formatted as
// "validation error: <reason>".
var ErrValidation = errors.New("validation error")

// ErrInvalidState indicates a guard violation in a state machine. Messages
// are formatted as "invalid state: <reason>".
var ErrInvalidState = errors.New("invalid state")
