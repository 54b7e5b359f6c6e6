package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested record, filename or blob is absent
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceFetch indicates the external content source was unavailable
	// or returned an invalid tree
	ErrSourceFetch = errors.New("source fetch failed")

	// ErrMirrorPending indicates a mirrored image is still in flight and
	// the bounded wait was exhausted
	ErrMirrorPending = errors.New("mirror pending")

	// ErrPrepareInProgress indicates another instance holds the
	// preparation lock for the document
	ErrPrepareInProgress = errors.New("preparation already in progress")

	// ErrUnauthorized indicates a refresh request without a valid token
	ErrUnauthorized = errors.New("unauthorized")
)
