// Package paginator walks one source adapter page by page until a stop
// condition is reached.
package paginator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/source"
)

// Defaults applied when the corresponding Config field is zero.
const (
	DefaultMaxPages = 10
	DefaultDelay    = time.Second
)

// Reason names why pagination over a source stopped.
type Reason string

const (
	// ReasonEmpty means a page produced no candidates or could not be parsed.
	ReasonEmpty Reason = "empty"
	// ReasonCaughtUp means a page contained only identities already stored.
	ReasonCaughtUp Reason = "caught-up"
	// ReasonMaxPages means the page bound was reached.
	ReasonMaxPages Reason = "max-pages"
	// ReasonNetwork means a page fetch failed.
	ReasonNetwork Reason = "network"
	// ReasonCanceled means the context ended between pages.
	ReasonCanceled Reason = "canceled"
)

// Pauser waits between page requests.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}

// TimerPauser sleeps for the delay or until ctx is done.
type TimerPauser struct{}

// Pause implements Pauser.
func (TimerPauser) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Config tunes a Paginator.
type Config struct {
	MaxPages int
	// Delay is the pause between consecutive pages. Negative disables it.
	Delay  time.Duration
	Pauser Pauser
	Logger *zap.Logger
}

// Result is everything one source produced during a run.
type Result struct {
	Source   listing.Source
	Listings []listing.JobListing
	Pages    int
	Reason   Reason
	// Err is the fetch or parse error that ended the walk, if any.
	Err error
}

// Paginator drives adapters through their listing pages.
type Paginator struct {
	maxPages int
	delay    time.Duration
	pauser   Pauser
	logger   *zap.Logger
}

// New builds a Paginator from cfg.
func New(cfg Config) *Paginator {
	p := &Paginator{
		maxPages: cfg.MaxPages,
		delay:    cfg.Delay,
		pauser:   cfg.Pauser,
		logger:   cfg.Logger,
	}
	if p.maxPages <= 0 {
		p.maxPages = DefaultMaxPages
	}
	if p.delay == 0 {
		p.delay = DefaultDelay
	}
	if p.pauser == nil {
		p.pauser = TimerPauser{}
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

type pageOutcome struct {
	page       int
	candidates []listing.JobListing
	unseen     int
	fetchErr   error
	parseErr   error
}

// Run fetches pages from adapter starting at page 1. known holds the
// identities already in the store and is only read.
func (p *Paginator) Run(ctx context.Context, adapter source.Adapter, known listing.IDSet) Result {
	res := Result{Source: adapter.Name()}
	logger := p.logger.With(zap.String("source", string(adapter.Name())))

	for page := 1; ; page++ {
		out := p.fetchStep(ctx, adapter, page, known)
		res.Pages = page
		res.Listings = append(res.Listings, out.candidates...)

		reason, done := p.transition(out, len(known) > 0)
		if done {
			res.Reason = reason
			res.Err = errors.Join(out.fetchErr, out.parseErr)
			p.logStop(logger, res)
			return res
		}

		p.pauser.Pause(ctx, p.delay)
		if ctx.Err() != nil {
			res.Reason = ReasonCanceled
			res.Err = ctx.Err()
			p.logStop(logger, res)
			return res
		}
	}
}

func (p *Paginator) fetchStep(ctx context.Context, adapter source.Adapter, page int, known listing.IDSet) pageOutcome {
	out := pageOutcome{page: page}
	fetched, err := adapter.FetchPage(ctx, page)
	if err != nil {
		out.fetchErr = err
		return out
	}
	candidates, err := adapter.ParseRows(fetched)
	if err != nil {
		out.parseErr = err
		return out
	}
	out.candidates = candidates
	for _, c := range candidates {
		if !known.Has(c.ID) {
			out.unseen++
		}
	}
	p.logger.Debug("page parsed",
		zap.String("source", string(adapter.Name())),
		zap.Int("page", page),
		zap.Int("count", len(candidates)),
		zap.Int("unseen", out.unseen),
	)
	return out
}

// transition decides whether the walk continues after out. caughtUpAllowed
// is false on a cold start so a first run is never cut short by an empty store.
func (p *Paginator) transition(out pageOutcome, caughtUpAllowed bool) (Reason, bool) {
	switch {
	case out.fetchErr != nil:
		return ReasonNetwork, true
	case out.parseErr != nil, len(out.candidates) == 0:
		return ReasonEmpty, true
	case out.unseen == 0 && caughtUpAllowed:
		return ReasonCaughtUp, true
	case out.page >= p.maxPages:
		return ReasonMaxPages, true
	default:
		return "", false
	}
}

func (p *Paginator) logStop(logger *zap.Logger, res Result) {
	fields := []zap.Field{
		zap.String("reason", string(res.Reason)),
		zap.Int("page", res.Pages),
		zap.Int("count", len(res.Listings)),
	}
	switch {
	case res.Reason == ReasonNetwork:
		logger.Warn("source fetch failed", append(fields, zap.Error(res.Err))...)
	case res.Err != nil:
		logger.Warn("pagination stopped", append(fields, zap.Error(res.Err))...)
	default:
		logger.Info("pagination stopped", fields...)
	}
}
