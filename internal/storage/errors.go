package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned for remote-mode operations without a session.
	ErrUnauthenticated = errors.New("unauthenticated: no active session")

	// ErrNotFound is returned when an update or delete target does not exist for the owner.
	ErrNotFound = errors.New("application not found")
)

// UnavailableError reports a failed read or write of the local medium.
type UnavailableError struct {
	Op    string
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %s: %v", e.Op, e.Cause)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

// RemoteError reports a transport or server failure of the remote store.
type RemoteError struct {
	Op    string
	Cause error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote store: %s: %v", e.Op, e.Cause)
}

func (e *RemoteError) Unwrap() error { return e.Cause }

// IsRetryable reports whether err is a medium or transport failure that
// the caller may retry. Validation, auth and not-found errors are not.
func IsRetryable(err error) bool {
	var ue *UnavailableError
	var re *RemoteError
	return errors.As(err, &ue) || errors.As(err, &re)
}

func unavailable(op string, err error) error {
	return &UnavailableError{Op: op, Cause: err}
}

func remote(op string, err error) error {
	return &RemoteError{Op: op, Cause: err}
}
