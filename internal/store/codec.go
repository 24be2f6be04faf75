package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/JakeFAU/academic-radar/internal/listing"
)

// Encode renders listings as the indented JSON array shared by file and
// object backends.
func Encode(listings []listing.JobListing) ([]byte, error) {
	if listings == nil {
		listings = []listing.JobListing{}
	}
	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode listings: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a JSON array of listings. Records that fail validation or
// repeat an earlier identity are skipped and counted. Empty input is an
// empty store.
func Decode(data []byte) ([]listing.JobListing, int, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, 0, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode listings: %w", err)
	}
	out := make([]listing.JobListing, 0, len(raw))
	seen := make(listing.IDSet, len(raw))
	skipped := 0
	for _, rec := range raw {
		var l listing.JobListing
		if err := json.Unmarshal(rec, &l); err != nil || l.Validate() != nil || seen.Has(l.ID) {
			skipped++
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out, skipped, nil
}
