// Package storetest is a contract test suite for snapshot.Store
// implementations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/hreffs/pkg/listing"
	"github.com/marmos91/hreffs/pkg/store/snapshot"
)

// Suite tests the Store contract, not implementation details, so it runs
// unchanged against every backend.
//
// Usage:
//
//	func TestMyStore(t *testing.T) {
//	    suite := &storetest.Suite{
//	        NewStore: func(t *testing.T) snapshot.Store {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type Suite struct {
	// NewStore creates a fresh, empty store for each test.
	NewStore func(t *testing.T) snapshot.Store
}

// Run executes all tests in the suite.
func (s *Suite) Run(t *testing.T) {
	t.Run("PutGet", s.testPutGet)
	t.Run("GetMissing", s.testGetMissing)
	t.Run("PutReplaces", s.testPutReplaces)
	t.Run("Delete", s.testDelete)
	t.Run("List", s.testList)
	t.Run("StoredCopyIsIsolated", s.testIsolation)
	t.Run("RejectsSnapshotWithoutURL", s.testRejectsEmpty)
	t.Run("CancelledContext", s.testCancelled)
}

// Sample builds a small snapshot rooted at baseURL.
func Sample(baseURL string) *listing.Snapshot {
	size := uint64(4301)
	mod := time.Date(2023, time.June, 14, 10, 32, 0, 0, time.UTC)
	return &listing.Snapshot{
		BaseURL:   baseURL,
		FetchedAt: time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC),
		Entries: []listing.Entry{
			{Name: listing.ParentSentinel, URL: baseURL + "../", IsContainer: true},
			{Name: "file.iso", URL: baseURL + "file.iso", Size: &size, ModTime: &mod, Extra: "14-Jun-2023 10:32  4.2K"},
		},
	}
}

func (s *Suite) newStore(t *testing.T) snapshot.Store {
	t.Helper()
	store := s.NewStore(t)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func (s *Suite) testPutGet(t *testing.T) {
	ctx := context.Background()
	store := s.newStore(t)

	want := Sample("http://example.com/pub/")
	require.NoError(t, store.Put(ctx, want))

	got, err := store.Get(ctx, want.BaseURL)
	require.NoError(t, err)
	assert.Equal(t, want.BaseURL, got.BaseURL)
	assert.True(t, want.FetchedAt.Equal(got.FetchedAt))
	require.Equal(t, 2, got.Len())

	file, ok := got.Lookup("file.iso")
	require.True(t, ok)
	require.NotNil(t, file.Size)
	assert.Equal(t, uint64(4301), *file.Size)
	require.NotNil(t, file.ModTime)
	assert.True(t, want.Entries[1].ModTime.Equal(*file.ModTime))
	assert.Equal(t, "14-Jun-2023 10:32  4.2K", file.Extra)

	parent, ok := got.Lookup(listing.ParentSentinel)
	require.True(t, ok)
	assert.True(t, parent.IsContainer)
	assert.Nil(t, parent.Size)
}

func (s *Suite) testGetMissing(t *testing.T) {
	_, err := s.newStore(t).Get(context.Background(), "http://nowhere/")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}

func (s *Suite) testPutReplaces(t *testing.T) {
	ctx := context.Background()
	store := s.newStore(t)

	first := Sample("http://example.com/")
	require.NoError(t, store.Put(ctx, first))

	second := Sample("http://example.com/")
	second.Entries = second.Entries[:1]
	second.Partial = true
	require.NoError(t, store.Put(ctx, second))

	got, err := store.Get(ctx, "http://example.com/")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	assert.True(t, got.Partial)
}

func (s *Suite) testDelete(t *testing.T) {
	ctx := context.Background()
	store := s.newStore(t)

	require.NoError(t, store.Put(ctx, Sample("http://a/")))
	require.NoError(t, store.Delete(ctx, "http://a/"))
	require.NoError(t, store.Delete(ctx, "http://a/"))

	_, err := store.Get(ctx, "http://a/")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}

func (s *Suite) testList(t *testing.T) {
	ctx := context.Background()
	store := s.newStore(t)

	for _, u := range []string{"http://b/", "http://a/", "http://c/"} {
		require.NoError(t, store.Put(ctx, Sample(u)))
	}

	urls, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a/", "http://b/", "http://c/"}, urls)
}

func (s *Suite) testIsolation(t *testing.T) {
	ctx := context.Background()
	store := s.newStore(t)

	snap := Sample("http://iso/")
	require.NoError(t, store.Put(ctx, snap))
	snap.Entries[1].Name = "mutated"

	got, err := store.Get(ctx, "http://iso/")
	require.NoError(t, err)
	got.Entries[0].Name = "mutated too"

	again, err := store.Get(ctx, "http://iso/")
	require.NoError(t, err)
	assert.Equal(t, listing.ParentSentinel, again.Entries[0].Name)
	assert.Equal(t, "file.iso", again.Entries[1].Name)
}

func (s *Suite) testRejectsEmpty(t *testing.T) {
	store := s.newStore(t)
	assert.Error(t, store.Put(context.Background(), &listing.Snapshot{}))
	assert.Error(t, store.Put(context.Background(), nil))
}

func (s *Suite) testCancelled(t *testing.T) {
	store := s.newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, Sample("http://x/")), context.Canceled)
	_, err := store.Get(ctx, "http://x/")
	assert.ErrorIs(t, err, context.Canceled)
}
