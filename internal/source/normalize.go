package source

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/academic-radar/internal/classify"
	"github.com/JakeFAU/academic-radar/internal/clock/system"
	"github.com/JakeFAU/academic-radar/internal/identity"
	"github.com/JakeFAU/academic-radar/internal/listing"
)

// DefaultLookbackDays is the recency window applied to published dates.
const DefaultLookbackDays = 7

// Options carries the collaborators and settings shared by every adapter.
type Options struct {
	// BaseURL resolves relative hrefs, e.g. https://tjn.moe.edu.tw.
	BaseURL   string
	// PageURL is a fmt template with a single %d for the page number.
	PageURL   string
	// DetailURL is a fmt template with a single %s for a numeric detail id.
	DetailURL string
	// Headers are sent with every page request.
	Headers   http.Header

	Fetcher      Fetcher
	Clock        Clock
	Location     *time.Location
	LookbackDays int
	Logger       *zap.Logger
}

// Row is the raw text extracted from one listing entry.
type Row struct {
	Organization string
	Title        string
	Location     string
	Published    string
	Deadline     string
	Link         string
}

// Normalizer converts raw rows into candidate listings for one source.
type Normalizer struct {
	source   listing.Source
	clock    Clock
	loc      *time.Location
	lookback int
}

// NewNormalizer builds a Normalizer, filling unset options with defaults.
func NewNormalizer(src listing.Source, opts Options) *Normalizer {
	n := &Normalizer{
		source:   src,
		clock:    opts.Clock,
		loc:      opts.Location,
		lookback: opts.LookbackDays,
	}
	if n.loc == nil {
		n.loc = time.UTC
	}
	if n.clock == nil {
		n.clock = system.New(n.loc)
	}
	if n.lookback <= 0 {
		n.lookback = DefaultLookbackDays
	}
	return n
}

// Normalize builds a listing from row. It returns an error wrapping
// ErrRowSkipped for rows without a title and ErrStale for rows outside the
// recency window.
func (n *Normalizer) Normalize(row Row) (listing.JobListing, error) {
	title := CleanText(row.Title)
	if title == "" {
		return listing.JobListing{}, fmt.Errorf("blank title: %w", ErrRowSkipped)
	}
	org := CleanText(row.Organization)
	published, err := ParseDate(row.Published)
	if err != nil {
		return listing.JobListing{}, fmt.Errorf("%v: %w", err, ErrStale)
	}
	if !WithinWindow(published, n.clock.Now(), n.loc, n.lookback) {
		return listing.JobListing{}, fmt.Errorf("published %s: %w", published, ErrStale)
	}
	school, department := SplitOrganization(org)

	tags := []string{}
	if loc := CleanText(row.Location); loc != "" {
		tags = append(tags, loc)
	}

	return listing.JobListing{
		ID:            identity.Generate(org, title, published),
		Title:         title,
		School:        school,
		Department:    department,
		PublishedDate: published,
		DeadlineDate:  ParseDeadline(row.Deadline),
		Source:        n.source,
		Link:          row.Link,
		Tags:          tags,
		Categories:    classify.Classify(title),
	}, nil
}

// NormalizeAll normalizes rows, dropping skipped and stale ones. It returns
// the kept listings and the number of dropped rows.
func (n *Normalizer) NormalizeAll(rows []Row, logger *zap.Logger) ([]listing.JobListing, int) {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := make([]listing.JobListing, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		l, err := n.Normalize(row)
		if err != nil {
			dropped++
			logger.Debug("row dropped",
				zap.String("source", string(n.source)),
				zap.Int("row", i),
				zap.Error(err),
			)
			continue
		}
		out = append(out, l)
	}
	return out, dropped
}
