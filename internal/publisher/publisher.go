// Package publisher announces newly stored listings to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JakeFAU/academic-radar/internal/listing"
)

// Message attribute keys.
const (
	AttrRunID      = "run_id"
	AttrSource     = "source"
	AttrCategories = "categories"
)

// Publisher sends one message per listing.
type Publisher interface {
	// Publish announces listings and returns how many were accepted.
	Publish(ctx context.Context, runID string, listings []listing.JobListing) (int, error)
	Close() error
}

// Noop discards every listing.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, string, []listing.JobListing) (int, error) { return 0, nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }

// Encode returns the message body and attributes for a listing.
func Encode(runID string, l listing.JobListing) ([]byte, map[string]string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal listing %s: %w", l.ID, err)
	}
	cats := make([]string, 0, len(l.Categories))
	for _, c := range l.Categories {
		cats = append(cats, string(c))
	}
	attrs := map[string]string{
		AttrRunID:      runID,
		AttrSource:     string(l.Source),
		AttrCategories: strings.Join(cats, ","),
	}
	return data, attrs, nil
}
