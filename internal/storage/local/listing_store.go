// Package local implements a listing store backed by a JSON file on the
// local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/store"
)

const (
	backendName    = "local"
	lockRetryDelay = 50 * time.Millisecond
)

// Config captures the parameters for the file-backed store.
type Config struct {
	// Path is the JSON file holding the listing array.
	Path string `mapstructure:"path"`
}

// ListingStore reads and writes the listing array under a sibling lock file
// so concurrent ingest and serve processes never observe a torn write.
type ListingStore struct {
	path   string
	lock   *flock.Flock
	logger *zap.Logger
}

var _ store.Store = (*ListingStore)(nil)

// New creates a file-backed listing store.
func New(cfg Config, logger *zap.Logger) (*ListingStore, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if info, err := os.Stat(cfg.Path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("store path %q is a directory", cfg.Path)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingStore{
		path:   filepath.Clean(cfg.Path),
		lock:   flock.New(filepath.Clean(cfg.Path) + ".lock"),
		logger: logger,
	}, nil
}

// Path returns the store file location.
func (s *ListingStore) Path() string { return s.path }

// Load reads every valid listing from the file. A missing file is an empty store.
func (s *ListingStore) Load(ctx context.Context) ([]listing.JobListing, error) {
	if err := s.acquire(ctx, s.lock.TryRLockContext); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &store.ReadError{Backend: backendName, Err: err}
	}
	defer s.release()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &store.ReadError{Backend: backendName, Err: err}
	}
	listings, skipped, err := store.Decode(data)
	if err != nil {
		return nil, &store.ReadError{Backend: backendName, Err: err}
	}
	if skipped > 0 {
		s.logger.Warn("skipped invalid stored listings", zap.String("path", s.path), zap.Int("count", skipped))
	}
	return listings, nil
}

// Save writes listings to a temporary file and renames it over the store.
func (s *ListingStore) Save(ctx context.Context, listings []listing.JobListing) error {
	data, err := store.Encode(listings)
	if err != nil {
		return &store.WriteError{Backend: backendName, Err: err}
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &store.WriteError{Backend: backendName, Err: fmt.Errorf("create store directory: %w", err)}
	}
	if err := s.acquire(ctx, s.lock.TryLockContext); err != nil {
		return &store.WriteError{Backend: backendName, Err: err}
	}
	defer s.release()

	if err := writeAtomic(dir, s.path, data); err != nil {
		return &store.WriteError{Backend: backendName, Err: err}
	}
	s.logger.Debug("store saved", zap.String("path", s.path), zap.Int("count", len(listings)))
	return nil
}

func (s *ListingStore) acquire(ctx context.Context, try func(context.Context, time.Duration) (bool, error)) error {
	locked, err := try(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", s.lock.Path())
	}
	return nil
}

func (s *ListingStore) release() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release store lock", zap.String("path", s.lock.Path()), zap.Error(err))
	}
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	// #nosec G302 -- the store is read by the display layer.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
