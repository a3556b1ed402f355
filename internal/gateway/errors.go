package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned for a 401 on an auth endpoint.
	// There is no session to tear down; the caller shows the message inline.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAuthRequired is returned for a 401 on a protected endpoint, after
	// the session has been cleared and the redirect to the login page issued.
	ErrAuthRequired = errors.New("authentication required")
)

// RequestError is a non-2xx response other than the two 401 cases. Message
// carries the backend's human-readable detail when one was provided.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// newRequestError builds a RequestError from a status and an optional
// backend detail message
func newRequestError(status int, detail string) *RequestError {
	if detail == "" {
		detail = fmt.Sprintf("HTTP error, status %d", status)
	}
	return &RequestError{Status: status, Message: detail}
}

// TransportError is a network-level failure: unreachable host, connection
// reset, malformed response body. Distinct from HTTP-status failures and
// never triggers a redirect.
type TransportError struct {
	cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.cause)
}

func (e *TransportError) Unwrap() error {
	return e.cause
}
