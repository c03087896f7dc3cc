package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedPlatform indicates an unknown platform identifier.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrMalformedPayload indicates an upstream payload with an
	// unexpected shape. The offending post is skipped; the run continues.
	ErrMalformedPayload = errors.New("malformed upstream payload")

	// ErrPermanentRequest indicates a request failure that retrying
	// cannot fix (a 4xx response other than 429).
	ErrPermanentRequest = errors.New("permanent request failure")

	// ErrAuthRequired indicates the platform needs credentials but none
	// are configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the platform rejected the credentials.
	ErrAuthInvalid = errors.New("authentication invalid")
)
