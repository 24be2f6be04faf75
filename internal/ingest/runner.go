// Package ingest runs every source, merges their candidates into the store
// and announces what is new.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/metrics"
	"github.com/JakeFAU/academic-radar/internal/paginator"
	"github.com/JakeFAU/academic-radar/internal/publisher"
	"github.com/JakeFAU/academic-radar/internal/source"
	"github.com/JakeFAU/academic-radar/internal/store"
)

// Config wires a Runner.
type Config struct {
	Sources      []source.Adapter
	Paginator    Paginator
	Store        store.Store
	Publisher    publisher.Publisher
	Recorder     Recorder
	IDs          IDGenerator
	Clock        Clock
	Logger       *zap.Logger
	RetentionCap int
	// TextfilePath, when set, receives the run metrics after every run.
	TextfilePath string
}

// SourceSummary describes one source's contribution to a run.
type SourceSummary struct {
	Source     listing.Source   `json:"source"`
	Pages      int              `json:"pages"`
	Candidates int              `json:"candidates"`
	Reason     paginator.Reason `json:"reason"`
	Error      string           `json:"error,omitempty"`
}

// Summary is the outcome of one run.
type Summary struct {
	RunID      string          `json:"runId"`
	Candidates int             `json:"candidates"`
	New        int             `json:"new"`
	Stored     int             `json:"stored"`
	Published  int             `json:"published"`
	PerSource  []SourceSummary `json:"perSource"`
	Duration   time.Duration   `json:"duration"`
}

// Runner executes ingestion runs.
type Runner struct {
	sources      []source.Adapter
	paginator    Paginator
	store        store.Store
	publisher    publisher.Publisher
	recorder     Recorder
	ids          IDGenerator
	clock        Clock
	logger       *zap.Logger
	retentionCap int
	textfile     string
}

// New validates cfg and builds a Runner.
func New(cfg Config) (*Runner, error) {
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("at least one source is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.IDs == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	r := &Runner{
		sources:      cfg.Sources,
		paginator:    cfg.Paginator,
		store:        cfg.Store,
		publisher:    cfg.Publisher,
		recorder:     cfg.Recorder,
		ids:          cfg.IDs,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		retentionCap: cfg.RetentionCap,
		textfile:     cfg.TextfilePath,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.paginator == nil {
		r.paginator = paginator.New(paginator.Config{Logger: r.logger})
	}
	if r.publisher == nil {
		r.publisher = publisher.Noop{}
	}
	if r.recorder == nil {
		r.recorder = metrics.New(false)
	}
	if r.clock == nil {
		r.clock = systemClock{}
	}
	if r.retentionCap <= 0 {
		r.retentionCap = store.DefaultCap
	}
	return r, nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Run performs one ingestion pass. Source failures degrade to zero
// candidates for that source; only a store write failure or a cancelled
// context fails the run, and neither persists anything.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := r.clock.Now()
	runID, err := r.ids.NewID()
	if err != nil {
		return Summary{}, fmt.Errorf("generate run id: %w", err)
	}
	summary := Summary{RunID: runID}
	logger := r.logger.With(zap.String("run_id", runID))
	logger.Info("ingest run started", zap.Int("sources", len(r.sources)))

	existing, err := r.store.Load(ctx)
	if err != nil {
		logger.Warn("store unreadable, starting from an empty store", zap.Error(err))
		existing = nil
	}
	known := listing.NewIDSet(existing)

	results := r.collect(ctx, known)
	candidates := make([]listing.JobListing, 0)
	for _, res := range results {
		candidates = append(candidates, res.Listings...)
		summary.PerSource = append(summary.PerSource, summarize(res))
		r.recorder.ObserveSource(string(res.Source), res.Pages, len(res.Listings), string(res.Reason))
	}
	summary.Candidates = len(candidates)

	if err := ctx.Err(); err != nil {
		r.finish(logger, metrics.OutcomeCanceled, start, &summary)
		return summary, fmt.Errorf("ingest canceled: %w", err)
	}

	merged := store.Merge(existing, candidates, r.retentionCap)
	if err := r.store.Save(ctx, merged.Listings); err != nil {
		logger.Error("store write failed", zap.Error(err))
		r.finish(logger, metrics.OutcomeFailure, start, &summary)
		return summary, err
	}
	summary.New = len(merged.New)
	summary.Stored = len(merged.Listings)

	summary.Published = r.announce(ctx, logger, runID, merged.New)
	r.finish(logger, metrics.OutcomeSuccess, start, &summary)
	return summary, nil
}

// collect fans out one paginator per source. Every goroutine reports nil so
// a failing source never cancels its siblings.
func (r *Runner) collect(ctx context.Context, known listing.IDSet) []paginator.Result {
	results := make([]paginator.Result, len(r.sources))
	var g errgroup.Group
	for i, adapter := range r.sources {
		g.Go(func() error {
			results[i] = r.paginator.Run(ctx, adapter, known)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runner) announce(ctx context.Context, logger *zap.Logger, runID string, fresh []listing.JobListing) int {
	if len(fresh) == 0 {
		return 0
	}
	published, err := r.publisher.Publish(ctx, runID, fresh)
	r.recorder.ObservePublish(published, len(fresh)-published)
	if err != nil {
		logger.Warn("publishing new listings failed",
			zap.Int("count", len(fresh)),
			zap.Int("published", published),
			zap.Error(err),
		)
	}
	return published
}

func (r *Runner) finish(logger *zap.Logger, outcome string, start time.Time, summary *Summary) {
	finished := r.clock.Now()
	summary.Duration = finished.Sub(start)
	r.recorder.ObserveRun(outcome, summary.Duration, summary.New, summary.Stored, finished)
	if r.textfile != "" {
		if err := r.recorder.WriteTextfile(r.textfile); err != nil {
			logger.Warn("metrics textfile not written", zap.String("path", r.textfile), zap.Error(err))
		}
	}
	logger.Info("ingest run finished",
		zap.String("outcome", outcome),
		zap.Int("candidates", summary.Candidates),
		zap.Int("new", summary.New),
		zap.Int("stored", summary.Stored),
		zap.Int("published", summary.Published),
		zap.Duration("duration", summary.Duration),
	)
}

func summarize(res paginator.Result) SourceSummary {
	s := SourceSummary{
		Source:     res.Source,
		Pages:      res.Pages,
		Candidates: len(res.Listings),
		Reason:     res.Reason,
	}
	if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
		s.Error = res.Err.Error()
	}
	return s
}
