package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/metrics"
	"github.com/JakeFAU/academic-radar/internal/paginator"
	pubmemory "github.com/JakeFAU/academic-radar/internal/publisher/memory"
	"github.com/JakeFAU/academic-radar/internal/source"
	"github.com/JakeFAU/academic-radar/internal/storage/memory"
	"github.com/JakeFAU/academic-radar/internal/store"
)

type staticAdapter struct {
	name     listing.Source
	pages    map[int][]listing.JobListing
	fetchErr error
}

func (a *staticAdapter) Name() listing.Source { return a.name }

func (a *staticAdapter) PageURL(page int) string {
	return fmt.Sprintf("https://%s.example.test/?page=%d", a.name, page)
}

func (a *staticAdapter) FetchPage(_ context.Context, page int) (source.Page, error) {
	if a.fetchErr != nil {
		return source.Page{}, &source.NetworkError{URL: a.PageURL(page), Err: a.fetchErr}
	}
	return source.Page{Number: page, URL: a.PageURL(page)}, nil
}

func (a *staticAdapter) ParseRows(page source.Page) ([]listing.JobListing, error) {
	return a.pages[page.Number], nil
}

type fixedIDs struct{ n int }

func (f *fixedIDs) NewID() (string, error) {
	f.n++
	return fmt.Sprintf("run-%d", f.n), nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func job(id string, src listing.Source, published string) listing.JobListing {
	return listing.JobListing{
		ID:            id,
		Title:         "專任助理教授",
		School:        "國立台灣大學",
		Department:    listing.DepartmentSeeTitle,
		PublishedDate: published,
		DeadlineDate:  listing.NoDeadline,
		Source:        src,
		Link:          "https://example.test/" + id,
		Tags:          []string{},
		Categories:    []listing.Category{listing.CategoryFaculty},
	}
}

type fixture struct {
	store     *memory.ListingStore
	publisher *pubmemory.Publisher
	recorder  *metrics.Recorder
	moe       *staticAdapter
	nstc      *staticAdapter
}

func newFixture(seed ...listing.JobListing) *fixture {
	return &fixture{
		store:     memory.NewListingStore(seed...),
		publisher: pubmemory.New(),
		recorder:  metrics.New(false),
		moe: &staticAdapter{name: listing.SourceMOE, pages: map[int][]listing.JobListing{
			1: {job("moe-1", listing.SourceMOE, "2026-10-13"), job("moe-2", listing.SourceMOE, "2026-10-12")},
		}},
		nstc: &staticAdapter{name: listing.SourceNSTC, pages: map[int][]listing.JobListing{
			1: {job("nstc-1", listing.SourceNSTC, "2026-10-14")},
		}},
	}
}

func (f *fixture) runner(t *testing.T, mutate ...func(*Config)) *Runner {
	t.Helper()
	cfg := Config{
		Sources:   []source.Adapter{f.moe, f.nstc},
		Paginator: paginator.New(paginator.Config{Delay: -1}),
		Store:     f.store,
		Publisher: f.publisher,
		Recorder:  f.recorder,
		IDs:       &fixedIDs{},
		Clock:     fixedClock{now: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	r, err := New(cfg)
	require.NoError(t, err)
	return r
}

func storedIDs(t *testing.T, s store.Store) []string {
	t.Helper()
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(got))
	for _, l := range got {
		out = append(out, l.ID)
	}
	return out
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{Sources: []source.Adapter{&staticAdapter{}}})
	require.Error(t, err)

	_, err = New(Config{Sources: []source.Adapter{&staticAdapter{}}, Store: memory.NewListingStore()})
	require.Error(t, err)
}

func TestRunColdStartMergesAllSources(t *testing.T) {
	t.Parallel()

	f := newFixture()
	summary, err := f.runner(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 3, summary.Candidates)
	assert.Equal(t, 3, summary.New)
	assert.Equal(t, 3, summary.Stored)
	assert.Equal(t, 3, summary.Published)
	require.Len(t, summary.PerSource, 2)
	assert.Equal(t, listing.SourceMOE, summary.PerSource[0].Source)
	assert.Equal(t, paginator.ReasonEmpty, summary.PerSource[0].Reason)
	assert.Equal(t, 2, summary.PerSource[0].Pages)

	assert.Equal(t, []string{"nstc-1", "moe-1", "moe-2"}, storedIDs(t, f.store))
	assert.Len(t, f.publisher.Messages(), 3)
	assert.Equal(t, "run-1", f.publisher.Messages()[0].Attributes["run_id"])
}

func TestRunSecondPassIsCaughtUp(t *testing.T) {
	t.Parallel()

	f := newFixture()
	r := f.runner(t)
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-2", summary.RunID)
	assert.Zero(t, summary.New)
	assert.Equal(t, 3, summary.Stored)
	assert.Equal(t, paginator.ReasonCaughtUp, summary.PerSource[0].Reason)
	assert.Equal(t, 1, summary.PerSource[0].Pages)
	assert.Len(t, f.publisher.Messages(), 3, "nothing new to announce")
}

func TestRunSourceFailureDoesNotAffectSiblings(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.nstc.fetchErr = errors.New("tls handshake timeout")

	summary, err := f.runner(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Stored)
	assert.Equal(t, paginator.ReasonNetwork, summary.PerSource[1].Reason)
	assert.Contains(t, summary.PerSource[1].Error, "tls handshake timeout")
	assert.Equal(t, []string{"moe-1", "moe-2"}, storedIDs(t, f.store))
}

func TestRunUnreadableStoreIsColdStart(t *testing.T) {
	t.Parallel()

	f := newFixture(job("old", listing.SourceMOE, "2026-10-01"))
	f.store.FailLoad(errors.New("corrupt"))

	summary, err := f.runner(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.New)
	assert.Equal(t, 1, f.store.Saves())
}

func TestRunStoreWriteFailureFailsRun(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.store.FailSave(errors.New("read-only filesystem"))

	_, err := f.runner(t).Run(context.Background())
	var writeErr *store.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Empty(t, f.publisher.Messages())
}

func TestRunCanceledDoesNotPersist(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner(t).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.store.Saves())
	assert.Empty(t, f.publisher.Messages())
}

func TestRunPublishFailureIsBestEffort(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.publisher.Fail(errors.New("topic not found"))

	summary, err := f.runner(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Stored)
	assert.Zero(t, summary.Published)
}

func TestRunRetentionCapKeepsNewest(t *testing.T) {
	t.Parallel()

	f := newFixture(job("ancient", listing.SourceMOE, "2026-01-01"))

	summary, err := f.runner(t, func(c *Config) { c.RetentionCap = 3 }).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Stored)
	assert.NotContains(t, storedIDs(t, f.store), "ancient")
}

func TestRunWritesTextfile(t *testing.T) {
	t.Parallel()

	f := newFixture()
	path := filepath.Join(t.TempDir(), "radar.prom")

	_, err := f.runner(t, func(c *Config) { c.TextfilePath = path }).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `radar_runs_total{outcome="success"} 1`)
	assert.Contains(t, string(data), "radar_stored_listings 3")
}
