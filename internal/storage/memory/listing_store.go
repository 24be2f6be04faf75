// Package memory keeps listings in-process for tests and dry runs.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/store"
)

// ListingStore holds a copy of the last saved listing set.
type ListingStore struct {
	mu       sync.RWMutex
	listings []listing.JobListing
	saves    int
	loadErr  error
	saveErr  error
}

var _ store.Store = (*ListingStore)(nil)

// NewListingStore creates a store seeded with listings.
func NewListingStore(seed ...listing.JobListing) *ListingStore {
	return &ListingStore{listings: slices.Clone(seed)}
}

// FailLoad makes subsequent Load calls return err wrapped as a store.ReadError.
func (s *ListingStore) FailLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// FailSave makes subsequent Save calls return err wrapped as a store.WriteError.
func (s *ListingStore) FailSave(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Load returns a copy of the stored listings.
func (s *ListingStore) Load(context.Context) ([]listing.JobListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return nil, &store.ReadError{Backend: "memory", Err: s.loadErr}
	}
	return slices.Clone(s.listings), nil
}

// Save replaces the stored listings with a copy of listings.
func (s *ListingStore) Save(_ context.Context, listings []listing.JobListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return &store.WriteError{Backend: "memory", Err: s.saveErr}
	}
	s.listings = slices.Clone(listings)
	s.saves++
	return nil
}

// Saves reports how many successful Save calls were made.
func (s *ListingStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
