package transport

import (
	"errors"
	"net/http"
)

var (
	// ErrNetworkUnavailable means no response could be obtained at all.
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrRequestFailed matches every *RequestError.
	ErrRequestFailed = errors.New("request failed")
	// ErrNotFound matches a *RequestError carrying a 404 status.
	ErrNotFound = errors.New("not found")
)

// RequestError is returned for non-2xx responses and for success responses
// whose body is not valid JSON. Message is what the user gets to see.
type RequestError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrRequestFailed:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
