// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrSessionNotFound indicates that a booking was deleted
// between the caller's read and their write, while ErrConflict
// signals that a roster update lost an optimistic-concurrency race
// and should be retried from a fresh snapshot.
package repository

import "errors"

// ErrSessionNotFound is returned when an operation targets a session
// that does not exist (or no longer exists). Handlers should
// translate this into an HTTP 404 response.
var ErrSessionNotFound = errors.New("session not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a versioned write observes that the
// row changed since it was read. Callers retry from a fresh read; if
// retries are exhausted, handlers translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")
