// Package memory provides an in-process snapshot store with LRU eviction
// and TTL expiry.
package memory

import (
	"container/list"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/marmos91/hreffs/internal/logger"
	"github.com/marmos91/hreffs/pkg/listing"
	"github.com/marmos91/hreffs/pkg/store/snapshot"
)

// Config holds the cache bounds of a Store.
type Config struct {
	// TTL is how long a snapshot stays valid (0 = forever)
	TTL time.Duration `mapstructure:"ttl"`

	// MaxEntries limits the number of stored snapshots (LRU eviction)
	MaxEntries int `mapstructure:"max_entries"`
}

// DefaultConfig returns the bounds used when none are configured.
func DefaultConfig() Config {
	return Config{
		TTL:        10 * time.Minute,
		MaxEntries: 64,
	}
}

// Store keeps snapshots in memory.
//
// Cache Strategy:
//   - LRU eviction when MaxEntries is reached
//   - TTL expiry checked on read
//   - Put replaces the stored snapshot and refreshes its timestamp
//
// Thread Safety:
// All operations are protected by a single mutex.
type Store struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	cache   map[string]*cacheEntry
	lruList *list.List

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	snap      *listing.Snapshot
	timestamp time.Time
	lruNode   *list.Element
}

// New creates an empty Store.
func New(cfg Config) *Store {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}

	logger.Debug("Memory snapshot store: ttl=%v max_entries=%d", cfg.TTL, cfg.MaxEntries)

	return &Store{
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
		cache:      make(map[string]*cacheEntry),
		lruList:    list.New(),
	}
}

func (s *Store) expired(e *cacheEntry) bool {
	return s.ttl > 0 && s.now().Sub(e.timestamp) > s.ttl
}

// Put implements snapshot.Store.
func (s *Store) Put(ctx context.Context, snap *listing.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap == nil || snap.BaseURL == "" {
		return fmt.Errorf("snapshot without base URL")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := snap.BaseURL
	if existing, ok := s.cache[key]; ok {
		existing.snap = snapshot.Clone(snap)
		existing.timestamp = s.now()
		s.lruList.MoveToFront(existing.lruNode)
		return nil
	}

	if len(s.cache) >= s.maxEntries {
		s.evictOldest()
	}

	entry := &cacheEntry{
		snap:      snapshot.Clone(snap),
		timestamp: s.now(),
	}
	entry.lruNode = s.lruList.PushFront(key)
	s.cache[key] = entry
	return nil
}

// Get implements snapshot.Store.
func (s *Store) Get(ctx context.Context, baseURL string) (*listing.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[baseURL]
	if !ok {
		s.misses++
		return nil, fmt.Errorf("%s: %w", baseURL, snapshot.ErrNotFound)
	}
	if s.expired(entry) {
		s.remove(baseURL, entry)
		s.misses++
		return nil, fmt.Errorf("%s: %w", baseURL, snapshot.ErrNotFound)
	}

	s.hits++
	s.lruList.MoveToFront(entry.lruNode)
	return snapshot.Clone(entry.snap), nil
}

// Delete implements snapshot.Store.
func (s *Store) Delete(ctx context.Context, baseURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.cache[baseURL]; ok {
		s.remove(baseURL, entry)
	}
	return nil
}

// List implements snapshot.Store.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	urls := make([]string, 0, len(s.cache))
	for key, entry := range s.cache {
		if !s.expired(entry) {
			urls = append(urls, key)
		}
	}
	sort.Strings(urls)
	return urls, nil
}

// Close implements snapshot.Store.
func (s *Store) Close() error {
	hits, misses := s.Stats()
	logger.Debug("Snapshot cache closed: %d hits, %d misses", hits, misses)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = make(map[string]*cacheEntry)
	s.lruList.Init()
	return nil
}

// Stats returns the cache hit and miss counts.
func (s *Store) Stats() (hits, misses uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}

// evictOldest removes the least recently used snapshot.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	oldest := s.lruList.Back()
	if oldest == nil {
		return
	}
	key := oldest.Value.(string)
	s.remove(key, s.cache[key])
	logger.Debug("Evicted snapshot: %s", key)
}

// remove drops key from both the map and the LRU list.
// Must be called with s.mu held.
func (s *Store) remove(key string, entry *cacheEntry) {
	s.lruList.Remove(entry.lruNode)
	delete(s.cache, key)
}
