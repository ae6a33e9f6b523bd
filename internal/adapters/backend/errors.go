package backend

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrBaseURL   = errors.New("invalid base url")
	ErrTransport = errors.New("backend request failed")
	ErrStatus    = errors.New("backend returned non-2xx status")
	ErrDecode    = errors.New("backend response could not be decoded")
)

// StatusError is returned for a non-2xx upstream response.
type StatusError struct {
	Resource   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Resource, e.StatusCode, e.Body)
}

// Is matches ErrStatus.
func (e *StatusError) Is(target error) bool { return target == ErrStatus }
