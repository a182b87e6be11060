package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// RemoteError is a non-2xx response from the task service. Message holds
// the service's detail text when it provided one.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote returned status %d", e.Status)
	}
	return fmt.Sprintf("remote returned status %d: %s", e.Status, e.Message)
}

// Unauthorized reports whether the error indicates a missing or expired
// credential. Callers surface it as an unauthenticated condition and expire
// the session instead of retrying.
func (e *RemoteError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// TransportError is a network or timeout failure below the application
// layer. It carries no retry semantics; the client never retries.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a RemoteError with status 401.
func IsUnauthorized(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Unauthorized()
}
