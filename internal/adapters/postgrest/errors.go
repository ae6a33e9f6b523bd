package postgrest

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrBaseURL   = errors.New("invalid postgrest url")
	ErrTransport = errors.New("postgrest request failed")
	ErrStatus    = errors.New("postgrest returned non-2xx status")
	ErrDecode    = errors.New("postgrest response could not be decoded")
	ErrNotFound  = errors.New("no matching row")
)

// defaultMessage is shown when PostgREST gives no usable detail.
const defaultMessage = "PostgREST API 오류가 발생했습니다."

// APIError is a non-2xx PostgREST response.
type APIError struct {
	Table      string `json:"-"`
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Hint       string `json:"hint"`
	Details    string `json:"details"`
}

// Summary picks the most useful text: message, then hint, then details.
func (e *APIError) Summary() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Hint != "":
		return e.Hint
	case e.Details != "":
		return e.Details
	}
	return defaultMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Table, e.StatusCode, e.Summary())
}

// Is matches ErrStatus.
func (e *APIError) Is(target error) bool { return target == ErrStatus }
