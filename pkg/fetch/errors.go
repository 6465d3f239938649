package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrUserAbort is returned by Download when the progress callback asks
	// to cancel. It is a user decision, not a transfer failure: callers
	// report it as an abort and must not retry.
	ErrUserAbort = errors.New("transfer cancelled by user")

	// ErrWrite wraps failures of the destination sink during Download.
	ErrWrite = errors.New("destination write failed")

	// ErrHTTPStatus is the cause of a TransferError raised for a response
	// status >= 400 while FailOnError is set.
	ErrHTTPStatus = errors.New("http error status")

	// ErrTooManyRedirects is the cause of a TransferError raised when the
	// redirect chain exceeds MaxRedirects.
	ErrTooManyRedirects = errors.New("maximum redirects followed")
)

// TransferError describes a failed network operation: connection errors,
// timeouts, and (with FailOnError) HTTP error statuses.
//
// A TransferError aborts the current listing or download. It is never
// retried internally; the host re-initiates the operation if it wants to.
type TransferError struct {
	// Op is the HTTP method of the failed request (GET, HEAD)
	Op string

	// URL is the requested resource
	URL string

	// StatusCode is the HTTP status, or 0 if no response was received
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TransferError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %v (status %d)", e.Op, e.URL, e.Cause, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *TransferError) Unwrap() error {
	return e.Cause
}

