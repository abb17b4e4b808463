// Package repository defines error values that are reused across multiple
// repositories.  These sentinel values let handlers distinguish failure
// scenarios: ErrConflict signals that an operation cannot proceed because
// of overlapping accepted rentals, ErrNotPending that a lifecycle
// transition was attempted on a rental that already left the PENDING
// state.
package repository

import "errors"

// ErrConflict is returned when an availability check finds an accepted
// rental overlapping the candidate range.  Handlers translate this into
// an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrNotPending is returned when an approve or reject targets a rental
// whose status is no longer PENDING.  Handlers translate this into an
// HTTP 409 response.
var ErrNotPending = errors.New("rental is not pending")
