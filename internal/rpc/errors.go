package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks a transport failure: the owning process was not
	// reachable or the channel dropped mid-call. Retried by RetryPolicy.
	ErrUnavailable = errors.New("message router unavailable")

	// ErrRetriesExhausted wraps the last transport failure once every
	// attempt has been used.
	ErrRetriesExhausted = errors.New("retries exhausted")

	ErrMissingAction  = errors.New("missing action")
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidPayload = errors.New("invalid payload")

	ErrClientClosed = errors.New("client closed")
)

// RemoteError is a {success:false} response surfaced to the caller
type RemoteError struct {
	Action  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// permanentError stops RetryPolicy from trying again
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
