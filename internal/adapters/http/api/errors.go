package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrUpstream   = errors.New("upstream unavailable")
	ErrRender     = errors.New("page render failed")
)

// Error codes written in JSON error bodies.
const (
	codeBadRequest = "bad_request"
	codeUpstream   = "upstream_error"
	codeNotFound   = "not_found"
	codeInternal   = "internal_error"
)
