package appid

import "errors"

// Errors returned by collection, encoding and decoding. Callers branch
// with errors.Is; the wrapping message carries the detail. Decode
// errors are terminal: input that is not strict, canonically ordered
// DER is rejected outright, never repaired.
var (
	// ErrNotFound means the package source has no packages for the UID.
	ErrNotFound = errors.New("no packages registered for uid")

	// ErrSourceUnavailable means the package source itself failed; the
	// caller may retry.
	ErrSourceUnavailable = errors.New("package source unavailable")

	// ErrInvalidInput means the aggregate violates a model invariant.
	// It is raised before any encoding work starts.
	ErrInvalidInput = errors.New("invalid attestation application id")

	// ErrEncodingOverflow means a field exceeds what a DER
	// definite-length header can carry.
	ErrEncodingOverflow = errors.New("encoding exceeds DER length limit")

	// ErrNonCanonical means the input parses as DER but its set
	// elements are out of canonical order or repeated.
	ErrNonCanonical = errors.New("non-canonical DER set order")

	// ErrMalformed means the input is not strict DER for the
	// attestation application id schema.
	ErrMalformed = errors.New("malformed DER")
)
