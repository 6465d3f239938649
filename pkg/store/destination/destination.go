// Package destination defines where downloaded files are written.
package destination

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidName is returned for names that escape the destination root or
// are empty.
var ErrInvalidName = errors.New("invalid destination name")

// Destination receives downloaded files.
//
// Names are the host's local names for the file. A Destination decides
// how they map onto its storage (a path under a root directory, an object
// key under a prefix).
type Destination interface {
	// Exists reports whether name already holds a file.
	Exists(ctx context.Context, name string) (bool, error)

	// Create opens name for writing, truncating any existing file. The
	// file is complete once the writer has been closed successfully.
	Create(ctx context.Context, name string) (io.WriteCloser, error)
}

// Discarder is implemented by writers that can abandon a transfer without
// publishing it. A cancelled download calls Discard instead of Close.
type Discarder interface {
	Discard() error
}

// Abandon ends an interrupted write: Discard when the writer supports it,
// Close otherwise (the partial file is kept, not deleted).
func Abandon(w io.WriteCloser) error {
	if d, ok := w.(Discarder); ok {
		return d.Discard()
	}
	return w.Close()
}
