// Package s3 uploads downloads to Amazon S3 or an S3-compatible service.
//
// S3 has no appendable objects, so a download is spooled to a local
// temporary file and uploaded with a single PutObject when the writer is
// closed. A cancelled download is discarded and never uploaded.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/hreffs/internal/logger"
	"github.com/marmos91/hreffs/pkg/store/destination"
)

// API is the subset of the S3 client the destination uses.
type API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config contains configuration for an S3 destination.
type Config struct {
	// Client is the configured S3 client
	Client API

	// Bucket is the target bucket (must exist)
	Bucket string

	// KeyPrefix is prepended to every object key
	KeyPrefix string

	// SpoolDir holds temporary files (os.TempDir() if empty)
	SpoolDir string
}

// Store is a Destination writing objects to one bucket.
//
// Thread Safety:
// Safe for concurrent use; each writer owns its spool file.
type Store struct {
	client    API
	bucket    string
	keyPrefix string
	spoolDir  string
}

// New creates a Store.
func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		spoolDir:  cfg.SpoolDir,
	}, nil
}

// objectKey maps a local name onto an object key: only the base name is
// kept, under the configured prefix.
func (s *Store) objectKey(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("%q: %w", name, destination.ErrInvalidName)
	}
	return s.keyPrefix + base, nil
}

// Exists implements destination.Destination.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key, err := s.objectKey(name)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}

// Create implements destination.Destination. The returned writer also
// implements destination.Discarder.
func (s *Store) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := s.objectKey(name)
	if err != nil {
		return nil, err
	}

	spool, err := os.CreateTemp(s.spoolDir, "hreffs-spool-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create spool file: %w", err)
	}

	return &spoolWriter{ctx: ctx, store: s, key: key, spool: spool}, nil
}

// spoolWriter buffers one object on disk until Close uploads it.
type spoolWriter struct {
	ctx   context.Context
	store *Store
	key   string
	spool *os.File
	size  int64
	done  bool
}

func (w *spoolWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, os.ErrClosed
	}
	n, err := w.spool.Write(p)
	w.size += int64(n)
	return n, err
}

// Close uploads the spooled bytes and removes the spool file.
func (w *spoolWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	defer w.cleanup()

	if _, err := w.spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind spool file: %w", err)
	}

	_, err := w.store.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket:        aws.String(w.store.bucket),
		Key:           aws.String(w.key),
		Body:          w.spool,
		ContentLength: aws.Int64(w.size),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", w.key, err)
	}

	logger.Debug("Uploaded s3://%s/%s (%d bytes)", w.store.bucket, w.key, w.size)
	return nil
}

// Discard drops the spooled bytes without uploading.
func (w *spoolWriter) Discard() error {
	if w.done {
		return nil
	}
	w.done = true
	w.cleanup()
	logger.Debug("Discarded upload of s3://%s/%s", w.store.bucket, w.key)
	return nil
}

func (w *spoolWriter) cleanup() {
	_ = w.spool.Close()
	_ = os.Remove(w.spool.Name())
}
