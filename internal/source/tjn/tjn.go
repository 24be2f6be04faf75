// Package tjn scrapes the Ministry of Education teacher recruitment portal
// (大專教師人才網).
package tjn

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/source"
)

// Defaults for the public portal.
const (
	DefaultBaseURL = "https://tjn.moe.edu.tw"
	DefaultPageURL = "https://tjn.moe.edu.tw/EduJin/Opening/Index?page=%d"
)

// minCells is the smallest row the portal renders for a real opening:
// organization, title, location, published date and deadline.
const minCells = 5

const (
	cellOrganization = iota
	cellTitle
	cellLocation
	cellPublished
	cellDeadline
	cellLink
)

// Adapter implements source.Adapter for the TJN portal.
type Adapter struct {
	opts       source.Options
	normalizer *source.Normalizer
	logger     *zap.Logger
}

// New builds a TJN adapter.
func New(opts source.Options) (*Adapter, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("tjn: fetcher is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PageURL == "" {
		opts.PageURL = DefaultPageURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		opts:       opts,
		normalizer: source.NewNormalizer(listing.SourceMOE, opts),
		logger:     logger.With(zap.String("source", string(listing.SourceMOE))),
	}, nil
}

// Name returns the MOE source tag.
func (a *Adapter) Name() listing.Source {
	return listing.SourceMOE
}

// PageURL renders the listing URL for page.
func (a *Adapter) PageURL(page int) string {
	return fmt.Sprintf(a.opts.PageURL, page)
}

// FetchPage downloads one listing page.
func (a *Adapter) FetchPage(ctx context.Context, page int) (source.Page, error) {
	return source.FetchPage(ctx, a.opts, a.PageURL(page), page)
}

// ParseRows extracts listings from a TJN results table.
func (a *Adapter) ParseRows(page source.Page) ([]listing.JobListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Markup))
	if err != nil {
		return nil, fmt.Errorf("parse tjn markup: %w", err)
	}

	var (
		rows    []source.Row
		skipped int
	)
	doc.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < minCells {
			skipped++
			return
		}
		text := func(i int) string {
			return source.CleanText(cells.Eq(i).Text())
		}
		rows = append(rows, source.Row{
			Organization: text(cellOrganization),
			Title:        text(cellTitle),
			Location:     text(cellLocation),
			Published:    text(cellPublished),
			Deadline:     text(cellDeadline),
			Link:         a.link(cells, page.URL),
		})
	})

	listings, dropped := a.normalizer.NormalizeAll(rows, a.logger)
	a.logger.Debug("tjn page parsed",
		zap.Int("page", page.Number),
		zap.Int("rows", len(rows)),
		zap.Int("short_rows", skipped),
		zap.Int("dropped", dropped),
		zap.Int("kept", len(listings)),
	)
	return listings, nil
}

func (a *Adapter) link(cells *goquery.Selection, pageURL string) string {
	for _, i := range []int{cellLink, cellTitle} {
		if i >= cells.Length() {
			continue
		}
		href, _ := cells.Eq(i).Find("a[href]").First().Attr("href")
		if link, ok := source.ResolveLink(a.opts.BaseURL, href); ok {
			return link
		}
	}
	return pageURL
}
