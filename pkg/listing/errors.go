package listing

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Open when the page yielded no entries.
	ErrNotFound = errors.New("no entries found")

	// ErrEndOfSequence signals that a session has yielded every entry.
	// It is the normal end of an enumeration, not a failure.
	ErrEndOfSequence = errors.New("end of directory")

	// ErrNameSpaceExhausted is returned when no unique "(n)" variant of a
	// display name could be found within the attempt bound.
	ErrNameSpaceExhausted = errors.New("name space exhausted")

	// ErrInvalidURL is returned when the base URL is not absolute.
	ErrInvalidURL = errors.New("base URL must be absolute")

	// ErrSessionClosed is returned by cursor operations after Close.
	ErrSessionClosed = errors.New("session closed")
)

// ParseError reports a document that could not be parsed at all.
// Malformed markup is tolerated and never produces a ParseError.
type ParseError struct {
	URL   string
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
