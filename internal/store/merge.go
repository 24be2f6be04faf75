package store

import (
	"cmp"
	"slices"

	"github.com/JakeFAU/academic-radar/internal/listing"
)

// DefaultCap is the number of listings retained when no cap is configured.
const DefaultCap = 600

// MergeResult is the outcome of folding a run's candidates into the store.
type MergeResult struct {
	// Listings is the new store content, newest first.
	Listings []listing.JobListing
	// New holds the retained listings whose identity was not stored before.
	New []listing.JobListing
}

// Merge replaces existing records by identity with candidates (later
// candidates win), orders the union by published date descending with ties
// broken by identity ascending, and keeps at most limit records.
func Merge(existing, candidates []listing.JobListing, limit int) MergeResult {
	if limit <= 0 {
		limit = DefaultCap
	}
	before := listing.NewIDSet(existing)

	byID := make(map[string]listing.JobListing, len(existing)+len(candidates))
	for _, l := range existing {
		byID[l.ID] = l
	}
	for _, l := range candidates {
		byID[l.ID] = l
	}

	merged := make([]listing.JobListing, 0, len(byID))
	for _, l := range byID {
		merged = append(merged, l)
	}
	Sort(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}

	var fresh []listing.JobListing
	for _, l := range merged {
		if !before.Has(l.ID) {
			fresh = append(fresh, l)
		}
	}
	return MergeResult{Listings: merged, New: fresh}
}

// Sort orders listings newest first, then by identity.
func Sort(listings []listing.JobListing) {
	slices.SortFunc(listings, func(a, b listing.JobListing) int {
		if c := cmp.Compare(b.PublishedDate, a.PublishedDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
