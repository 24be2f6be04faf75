package source

import (
	"context"
	"net/http"
	"time"

	"github.com/JakeFAU/academic-radar/internal/listing"
)

// Fetcher retrieves raw markup for a URL. Implementations return a
// *NetworkError when the request fails or times out.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers http.Header) ([]byte, error)
}

// Adapter is one upstream listing site.
type Adapter interface {
	// Name is the source tag stamped on every listing.
	Name() listing.Source
	// PageURL returns the listing page URL for a 1-based page number.
	PageURL(page int) string
	// FetchPage downloads the markup of one listing page.
	FetchPage(ctx context.Context, page int) (Page, error)
	// ParseRows turns page markup into candidate listings. Malformed and
	// stale rows are dropped; an error means the page itself was unusable.
	ParseRows(page Page) ([]listing.JobListing, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
