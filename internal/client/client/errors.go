package client

import (
	"errors"
	"net/http"
)

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("too many requests")
	ErrInvalidResponse = errors.New("invalid response")
)

// APIError is a failure reported by the auth API: either a non-2xx status or
// a 2xx envelope with success=false. Error() is the server message verbatim
// so callers can show it as-is.
type APIError struct {
	StatusCode int
	Message    string
	Route      string
	// Generated is set when the server sent no message and Message was
	// made up by the client.
	Generated bool
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets callers match status classes with errors.Is(err, ErrUnauthorized)
// and friends without unwrapping.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrUnavailable:
		return e.StatusCode == http.StatusBadGateway ||
			e.StatusCode == http.StatusServiceUnavailable ||
			e.StatusCode == http.StatusGatewayTimeout
	}
	return false
}
