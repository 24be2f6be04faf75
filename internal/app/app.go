// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/academic-radar/internal/api"
	"github.com/JakeFAU/academic-radar/internal/clock/system"
	"github.com/JakeFAU/academic-radar/internal/config"
	collyfetcher "github.com/JakeFAU/academic-radar/internal/fetcher/colly"
	"github.com/JakeFAU/academic-radar/internal/id/uuid"
	"github.com/JakeFAU/academic-radar/internal/ingest"
	"github.com/JakeFAU/academic-radar/internal/metrics"
	"github.com/JakeFAU/academic-radar/internal/paginator"
	"github.com/JakeFAU/academic-radar/internal/publisher"
	"github.com/JakeFAU/academic-radar/internal/publisher/pubsub"
	"github.com/JakeFAU/academic-radar/internal/source"
	"github.com/JakeFAU/academic-radar/internal/source/nstc"
	"github.com/JakeFAU/academic-radar/internal/source/tjn"
	"github.com/JakeFAU/academic-radar/internal/storage/gcs"
	"github.com/JakeFAU/academic-radar/internal/storage/local"
	"github.com/JakeFAU/academic-radar/internal/storage/memory"
	"github.com/JakeFAU/academic-radar/internal/storage/postgres"
	"github.com/JakeFAU/academic-radar/internal/store"
)

// App holds the shared services built from one Config.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	store     store.Store
	publisher publisher.Publisher
	recorder  *metrics.Recorder
	fetcher   source.Fetcher
	clock     *system.Clock
	closers   []func() error
}

// Option customizes NewApp.
type Option func(*App)

// WithFetcher overrides the page fetcher (primarily for testing).
func WithFetcher(f source.Fetcher) Option {
	return func(a *App) { a.fetcher = f }
}

// WithStore overrides the configured store backend (primarily for testing).
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// NewApp creates every service cfg asks for. It fails fast when a backend
// cannot be initialized.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:      cfg,
		logger:   logger,
		recorder: metrics.New(false),
		clock:    system.New(cfg.Location()),
	}
	for _, opt := range opts {
		opt(a)
	}
	logger.Info("initializing application services",
		zap.String("store", cfg.Store.Provider),
		zap.String("notify", cfg.Notify.Provider),
	)

	if a.store == nil {
		if err := a.initStore(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	if err := a.initPublisher(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if a.fetcher == nil {
		a.fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent:          cfg.HTTP.UserAgent,
			Timeout:            cfg.HTTP.Timeout,
			InsecureSkipVerify: cfg.HTTP.InsecureSkipVerify,
		}, logger.Named("fetcher"))
	}
	return a, nil
}

func (a *App) initStore(ctx context.Context) error {
	sc := a.cfg.Store
	l := a.logger.Named("store")
	switch sc.Provider {
	case config.StoreLocal:
		s, err := local.New(sc.Local, l)
		if err != nil {
			return fmt.Errorf("failed to initialize local store: %w", err)
		}
		l.Info("using local store", zap.String("path", s.Path()))
		a.store = s
	case config.StoreGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		s, err := gcs.New(client, sc.GCS, l)
		if err != nil {
			return fmt.Errorf("failed to initialize gcs store: %w", err)
		}
		l.Info("using gcs store", zap.String("uri", s.URI()))
		a.store = s
	case config.StorePostgres:
		s, err := postgres.New(ctx, sc.Postgres, l)
		if err != nil {
			return fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		a.closers = append(a.closers, func() error { s.Close(); return nil })
		if err := s.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare postgres store: %w", err)
		}
		l.Info("using postgres store", zap.String("table", sc.Postgres.Table))
		a.store = s
	case config.StoreMemory:
		l.Warn("using in-memory store; listings are discarded on exit")
		a.store = memory.NewListingStore()
	default:
		return fmt.Errorf("unknown store provider: %s", sc.Provider)
	}
	return nil
}

func (a *App) initPublisher(ctx context.Context) error {
	switch a.cfg.Notify.Provider {
	case config.NotifyPubSub:
		p, err := pubsub.New(ctx, a.cfg.Notify.PubSub, a.logger.Named("publisher"))
		if err != nil {
			return fmt.Errorf("failed to initialize publisher: %w", err)
		}
		a.logger.Info("publishing new listings to pubsub", zap.String("topic", a.cfg.Notify.PubSub.TopicID))
		a.publisher = p
		a.closers = append(a.closers, p.Close)
	case config.NotifyNoop, "":
		a.publisher = publisher.Noop{}
	default:
		return fmt.Errorf("unknown notify provider: %s", a.cfg.Notify.Provider)
	}
	return nil
}

// GetLogger returns the shared zap logger.
func (a *App) GetLogger() *zap.Logger { return a.logger }

// GetStore returns the configured listing store.
func (a *App) GetStore() store.Store { return a.store }

// GetRecorder returns the metrics recorder shared by runs and the server.
func (a *App) GetRecorder() *metrics.Recorder { return a.recorder }

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config { return a.cfg }

// Sources builds the enabled source adapters in their fixed order.
func (a *App) Sources() ([]source.Adapter, error) {
	headers := http.Header{}
	if a.cfg.HTTP.AcceptLanguage != "" {
		headers.Set("Accept-Language", a.cfg.HTTP.AcceptLanguage)
	}
	base := source.Options{
		Headers:      headers,
		Fetcher:      a.fetcher,
		Clock:        a.clock,
		Location:     a.clock.Location(),
		LookbackDays: a.cfg.Ingest.LookbackDays,
		Logger:       a.logger.Named("source"),
	}

	var adapters []source.Adapter
	if sc := a.cfg.Sources.TJN; sc.Enabled {
		opts := base
		opts.BaseURL, opts.PageURL = sc.BaseURL, sc.PageURL
		ad, err := tjn.New(opts)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, ad)
	}
	if sc := a.cfg.Sources.NSTC; sc.Enabled {
		opts := base
		opts.BaseURL, opts.PageURL, opts.DetailURL = sc.BaseURL, sc.PageURL, sc.DetailURL
		ad, err := nstc.New(opts)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, ad)
	}
	if len(adapters) == 0 {
		return nil, errors.New("no sources enabled")
	}
	return adapters, nil
}

// NewRunner wires an ingestion runner over the enabled sources.
func (a *App) NewRunner() (*ingest.Runner, error) {
	adapters, err := a.Sources()
	if err != nil {
		return nil, err
	}
	delay := a.cfg.Ingest.PageDelay
	if delay == 0 {
		delay = -1
	}
	return ingest.New(ingest.Config{
		Sources: adapters,
		Paginator: paginator.New(paginator.Config{
			MaxPages: a.cfg.Ingest.MaxPages,
			Delay:    delay,
			Logger:   a.logger.Named("paginator"),
		}),
		Store:        a.store,
		Publisher:    a.publisher,
		Recorder:     a.recorder,
		IDs:          uuid.New(),
		Clock:        a.clock,
		Logger:       a.logger.Named("ingest"),
		RetentionCap: a.cfg.Ingest.RetentionCap,
		TextfilePath: a.cfg.Metrics.Textfile,
	})
}

// NewServer wires the read-only HTTP server over the store.
func (a *App) NewServer() *api.Server {
	return api.NewServer(a.store, a.recorder, a.clock, a.logger.Named("api"))
}

// Close releases clients in reverse creation order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close service", zap.Error(err))
		}
	}
	a.closers = nil
}
