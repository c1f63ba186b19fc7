// Package service implements the client portal: access-code verification,
// client session issue and validation, the proposal status state machine
// and the authenticate/respond flows composing them.
package service

import "errors"

// Error taxonomy surfaced to handlers.  Handlers map each value to one HTTP
// status; wrapped causes are for logs only.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
)
