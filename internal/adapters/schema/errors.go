package schema

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownResource = errors.New("unknown schema resource")
	ErrMalformed       = errors.New("malformed json")
	ErrInvalid         = errors.New("schema validation failed")
)
