package store

import (
	"context"

	"github.com/JakeFAU/academic-radar/internal/listing"
)

// Store persists the full set of retained listings.
type Store interface {
	// Load returns every stored listing. A missing store is empty, not an error.
	Load(ctx context.Context) ([]listing.JobListing, error)
	// Save replaces the stored set with listings.
	Save(ctx context.Context, listings []listing.JobListing) error
}
