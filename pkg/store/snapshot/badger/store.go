// Package badger provides a persistent snapshot store backed by BadgerDB.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/marmos91/hreffs/internal/logger"
	"github.com/marmos91/hreffs/pkg/listing"
	"github.com/marmos91/hreffs/pkg/store/snapshot"
)

// Config contains configuration for a BadgerDB snapshot store.
type Config struct {
	// DBPath is the directory BadgerDB keeps its files in
	DBPath string `mapstructure:"db_path"`

	// TTL expires stored snapshots (0 = keep until replaced)
	TTL time.Duration `mapstructure:"ttl"`

	// InMemory runs BadgerDB without touching disk (tests)
	InMemory bool `mapstructure:"in_memory"`
}

// Store persists snapshots in BadgerDB.
//
// Thread Safety:
// BadgerDB transactions are safe for concurrent use; the store adds no
// locking of its own.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// snapshotRecord is the stored form of a snapshot.
type snapshotRecord struct {
	Version  int               `json:"version"`
	StoredAt time.Time         `json:"stored_at"`
	Snapshot *listing.Snapshot `json:"snapshot"`
}

const recordVersion = 1

// New opens (or creates) the database described by cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.DBPath == "" {
			return nil, fmt.Errorf("badger snapshot store: db_path is required")
		}
		opts = badger.DefaultOptions(cfg.DBPath)
	}

	// Snapshots are small JSON documents; compression is not worth it.
	opts = opts.WithLoggingLevel(badger.WARNING).WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	logger.Debug("Badger snapshot store opened: path=%q ttl=%v in_memory=%v", cfg.DBPath, cfg.TTL, cfg.InMemory)

	return &Store{db: db, ttl: cfg.TTL}, nil
}

// Put implements snapshot.Store.
func (s *Store) Put(ctx context.Context, snap *listing.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap == nil || snap.BaseURL == "" {
		return fmt.Errorf("snapshot without base URL")
	}

	data, err := json.Marshal(snapshotRecord{
		Version:  recordVersion,
		StoredAt: time.Now(),
		Snapshot: snap,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(keySnapshot(snap.BaseURL), data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("failed to store snapshot: %w", err)
		}
		return nil
	})
}

// Get implements snapshot.Store.
func (s *Store) Get(ctx context.Context, baseURL string) (*listing.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec snapshotRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keySnapshot(baseURL))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", baseURL, snapshot.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if rec.Snapshot == nil {
		return nil, fmt.Errorf("%s: %w", baseURL, snapshot.ErrNotFound)
	}

	return rec.Snapshot, nil
}

// Delete implements snapshot.Store.
func (s *Store) Delete(ctx context.Context, baseURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keySnapshot(baseURL))
	})
}

// List implements snapshot.Store.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var urls []string
	prefix := []byte(prefixSnapshot)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec snapshotRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("failed to decode snapshot: %w", err)
			}
			if rec.Snapshot != nil {
				urls = append(urls, rec.Snapshot.BaseURL)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(urls)
	return urls, nil
}

// Close implements snapshot.Store.
func (s *Store) Close() error {
	return s.db.Close()
}
