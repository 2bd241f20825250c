package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is terminal: the session has been cleared and the
	// user has to log in again.
	ErrUnauthorized = errors.New("unauthorized: session expired, please log in again")

	// ErrMalformedResponse means the API answered 200 with a body that
	// could not be decoded.
	ErrMalformedResponse = errors.New("malformed response from API")
)

// ServerError carries the message decoded from a non-200 JSON error body
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// NetworkError wraps a transport failure that happened before any status
// was received
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func genericServerError(status int) *ServerError {
	return &ServerError{
		StatusCode: status,
		Message:    fmt.Sprintf("request failed with status %d", status),
	}
}
