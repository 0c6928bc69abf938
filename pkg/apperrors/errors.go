// Package apperrors defines sentinel errors shared across seqcat-engine.
package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrInvalidQuery is a construction error: a portal query or field list
	// does not match its declared result type. Raised before any network I/O.
	ErrInvalidQuery = errors.New("invalid portal query")

	// ErrNotAvailable means the portal returned an error-free empty result.
	// This is an expected outcome for availability probes, not a failure of
	// the portal itself.
	ErrNotAvailable = errors.New("not available in portal")

	// ErrPortalUnavailable means the portal could not be reached within the
	// configured retry budget.
	ErrPortalUnavailable = errors.New("portal unavailable")

	// ErrPortalProtocol means the portal responded, but with a malformed
	// payload or an embedded API error message. Never retried.
	ErrPortalProtocol = errors.New("portal protocol error")

	// ErrAmbiguousAccessions means more than one local record matched an
	// accession set during resolution. The accession-uniqueness invariant
	// has already been violated upstream, so this is surfaced, never merged.
	ErrAmbiguousAccessions = errors.New("multiple records match accession set")
)
