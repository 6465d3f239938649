// Package fs writes downloads to the local filesystem.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/hreffs/pkg/store/destination"
)

// Config configures a filesystem destination.
type Config struct {
	// Root confines names to a directory. Empty means names are used as
	// given (absolute or relative to the working directory).
	Root string `mapstructure:"root"`

	// CreateDirs creates missing parent directories on Create
	CreateDirs bool `mapstructure:"create_dirs"`
}

// Store is a Destination backed by local files.
type Store struct {
	root       string
	createDirs bool
}

// New creates a Store. A non-empty root must be an existing directory.
func New(cfg Config) (*Store, error) {
	if cfg.Root != "" {
		info, err := os.Stat(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("filesystem destination: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("filesystem destination: %s is not a directory", cfg.Root)
		}
	}
	return &Store{root: cfg.Root, createDirs: cfg.CreateDirs}, nil
}

// path maps name onto the filesystem, refusing names that leave the root.
func (s *Store) path(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", destination.ErrInvalidName
	}
	if s.root == "" {
		return filepath.Clean(name), nil
	}

	p := filepath.Join(s.root, filepath.Clean("/"+name))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%q: %w", name, destination.ErrInvalidName)
	}
	return p, nil
}

// Exists implements destination.Destination.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p, err := s.path(name)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create implements destination.Destination.
func (s *Store) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	if s.createDirs {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("create parent of %s: %w", p, err)
		}
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	return f, nil
}
