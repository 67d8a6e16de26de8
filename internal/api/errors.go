package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized tags any response whose status says the bearer token is
// stale, invalid, or missing. The client reports it; reacting (clearing the
// credential, flipping session state) belongs to the session manager.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError carries a backend rejection of the request payload. The
// message is surfaced to the user verbatim; the client performs no
// independent validation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthError indicates the login endpoint rejected the supplied credentials.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// NetworkError wraps a transport-level or server-side failure. It says
// nothing about session validity and must never cause a credential to be
// cleared; callers may retry.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the error is a transient failure worth
// retrying. Only network failures qualify; every other family is a
// definitive answer from the backend.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
