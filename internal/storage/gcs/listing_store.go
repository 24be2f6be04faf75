// Package gcs provides a listing store kept as one JSON object in a Google
// Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/store"
)

const (
	backendName = "gcs"
	// DefaultObject is used when Config.Object is empty.
	DefaultObject = "jobs.json"
	contentType   = "application/json"
)

// Config captures the parameters required to locate the store object.
type Config struct {
	Bucket string `mapstructure:"bucket"`
	Object string `mapstructure:"object"`
}

// Object is the slice of a GCS object handle the store uses.
type Object interface {
	// Read returns the object content or storage.ErrObjectNotExist.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// ListingStore reads and replaces the listing array in a bucket object.
type ListingStore struct {
	object Object
	uri    string
	logger *zap.Logger
}

var _ store.Store = (*ListingStore)(nil)

// New creates a GCS-backed listing store.
func New(client *storage.Client, cfg Config, logger *zap.Logger) (*ListingStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	cfg, err := normalize(cfg)
	if err != nil {
		return nil, err
	}
	handle := client.Bucket(cfg.Bucket).Object(cfg.Object)
	return NewWithObject(&objectHandle{handle: handle}, cfg, logger)
}

// NewWithObject builds a store around an existing Object.
func NewWithObject(obj Object, cfg Config, logger *zap.Logger) (*ListingStore, error) {
	if obj == nil {
		return nil, fmt.Errorf("object is required")
	}
	cfg, err := normalize(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingStore{
		object: obj,
		uri:    fmt.Sprintf("gs://%s/%s", cfg.Bucket, cfg.Object),
		logger: logger,
	}, nil
}

func normalize(cfg Config) (Config, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return cfg, fmt.Errorf("bucket name is required")
	}
	if strings.TrimSpace(cfg.Object) == "" {
		cfg.Object = DefaultObject
	}
	return cfg, nil
}

// URI returns the gs:// location of the store object.
func (s *ListingStore) URI() string { return s.uri }

// Load downloads and decodes the store object. A missing object is an empty store.
func (s *ListingStore) Load(ctx context.Context) ([]listing.JobListing, error) {
	data, err := s.object.Read(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, nil
		}
		return nil, &store.ReadError{Backend: backendName, Err: err}
	}
	listings, skipped, err := store.Decode(data)
	if err != nil {
		return nil, &store.ReadError{Backend: backendName, Err: err}
	}
	if skipped > 0 {
		s.logger.Warn("skipped invalid stored listings", zap.String("uri", s.uri), zap.Int("count", skipped))
	}
	return listings, nil
}

// Save replaces the store object with listings.
func (s *ListingStore) Save(ctx context.Context, listings []listing.JobListing) error {
	data, err := store.Encode(listings)
	if err != nil {
		return &store.WriteError{Backend: backendName, Err: err}
	}
	if err := s.object.Write(ctx, data); err != nil {
		return &store.WriteError{Backend: backendName, Err: err}
	}
	s.logger.Debug("store saved", zap.String("uri", s.uri), zap.Int("count", len(listings)))
	return nil
}

type objectHandle struct {
	handle *storage.ObjectHandle
}

func (o *objectHandle) Read(ctx context.Context) ([]byte, error) {
	r, err := o.handle.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

func (o *objectHandle) Write(ctx context.Context, data []byte) error {
	writer := o.handle.NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "no-cache"
	if _, err := writer.Write(data); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}
