// Package snapshot defines storage for resolved directory snapshots.
//
// A host only ever enumerates the snapshot of its current URL, but the
// transfer and info operations of a later process (the CLI's get and info
// commands) need the snapshot the previous listing produced. Stores keep
// the most recent Snapshot per base URL.
package snapshot

import (
	"context"
	"errors"

	"github.com/marmos91/hreffs/pkg/listing"
)

// ErrNotFound is returned by Get when no snapshot is stored for a URL or
// the stored one has expired.
var ErrNotFound = errors.New("snapshot not found")

// Store persists snapshots keyed by their BaseURL.
//
// Implementations must be safe for concurrent use. Put replaces any
// snapshot previously stored for the same URL; snapshots are never merged.
type Store interface {
	// Put stores snap under snap.BaseURL.
	Put(ctx context.Context, snap *listing.Snapshot) error

	// Get returns the snapshot stored for baseURL, or ErrNotFound.
	Get(ctx context.Context, baseURL string) (*listing.Snapshot, error)

	// Delete removes the snapshot for baseURL. Deleting a missing
	// snapshot is not an error.
	Delete(ctx context.Context, baseURL string) error

	// List returns the base URLs with a live snapshot.
	List(ctx context.Context) ([]string, error)

	// Close releases the store's resources.
	Close() error
}

// Clone returns a copy of snap whose Entries slice is not shared, so a
// stored snapshot is unaffected by later probe write-backs.
func Clone(snap *listing.Snapshot) *listing.Snapshot {
	if snap == nil {
		return nil
	}
	out := *snap
	out.Entries = append([]listing.Entry(nil), snap.Entries...)
	return &out
}
