// Package repository holds the SQL data access layer for the portal.  The
// sentinel values below let the service layer classify failures without
// looking at driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when a project or session row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with an existing row,
// such as a duplicate project_id.
var ErrConflict = errors.New("conflict")
