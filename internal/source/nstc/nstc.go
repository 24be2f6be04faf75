// Package nstc scrapes the National Science and Technology Council
// recruitment board.
package nstc

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/source"
)

// Defaults for the public board.
const (
	DefaultBaseURL   = "https://www.nstc.gov.tw"
	DefaultPageURL   = "https://www.nstc.gov.tw/careers/list?page=%d"
	DefaultDetailURL = "https://www.nstc.gov.tw/careers/detail?id=%s"
)

// The board always renders published date, organization and title; the
// deadline and location columns are optional.
const minCells = 3

const (
	cellPublished = iota
	cellOrganization
	cellTitle
	cellDeadline
	cellLocation
)

// Adapter implements source.Adapter for the NSTC board.
type Adapter struct {
	opts       source.Options
	normalizer *source.Normalizer
	logger     *zap.Logger
}

// New builds an NSTC adapter.
func New(opts source.Options) (*Adapter, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("nstc: fetcher is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PageURL == "" {
		opts.PageURL = DefaultPageURL
	}
	if opts.DetailURL == "" {
		opts.DetailURL = DefaultDetailURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		opts:       opts,
		normalizer: source.NewNormalizer(listing.SourceNSTC, opts),
		logger:     logger.With(zap.String("source", string(listing.SourceNSTC))),
	}, nil
}

// Name returns the NSTC source tag.
func (a *Adapter) Name() listing.Source {
	return listing.SourceNSTC
}

// PageURL renders the listing URL for page.
func (a *Adapter) PageURL(page int) string {
	return fmt.Sprintf(a.opts.PageURL, page)
}

// FetchPage downloads one listing page.
func (a *Adapter) FetchPage(ctx context.Context, page int) (source.Page, error) {
	return source.FetchPage(ctx, a.opts, a.PageURL(page), page)
}

// ParseRows extracts listings from an NSTC results table.
func (a *Adapter) ParseRows(page source.Page) ([]listing.JobListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Markup))
	if err != nil {
		return nil, fmt.Errorf("parse nstc markup: %w", err)
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
			if i >= cells.Length() {
				return ""
			}
			return source.CleanText(cells.Eq(i).Text())
		}
		rows = append(rows, source.Row{
			Organization: text(cellOrganization),
			Title:        text(cellTitle),
			Location:     text(cellLocation),
			Published:    text(cellPublished),
			Deadline:     text(cellDeadline),
			Link:         a.link(cells.Eq(cellTitle), page.URL),
		})
	})

	listings, dropped := a.normalizer.NormalizeAll(rows, a.logger)
	a.logger.Debug("nstc page parsed",
		zap.Int("page", page.Number),
		zap.Int("rows", len(rows)),
		zap.Int("short_rows", skipped),
		zap.Int("dropped", dropped),
		zap.Int("kept", len(listings)),
	)
	return listings, nil
}

// link prefers a usable href. Entries opened through script handlers carry
// the numeric detail id in the href, onclick or data-id attribute instead.
func (a *Adapter) link(cell *goquery.Selection, pageURL string) string {
	anchor := cell.Find("a").First()
	href, _ := anchor.Attr("href")
	if link, ok := source.ResolveLink(a.opts.BaseURL, href); ok {
		return link
	}
	onclick, _ := anchor.Attr("onclick")
	dataID, _ := anchor.Attr("data-id")
	if id := source.DetailID(dataID, href, onclick); id != "" {
		return fmt.Sprintf(a.opts.DetailURL, id)
	}
	return pageURL
}
