// Package config loads and validates radar configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"
	// Embedded zone data so Asia/Taipei resolves on minimal images.
	_ "time/tzdata"

	"github.com/spf13/viper"

	"github.com/JakeFAU/academic-radar/internal/publisher/pubsub"
	"github.com/JakeFAU/academic-radar/internal/storage/gcs"
	"github.com/JakeFAU/academic-radar/internal/storage/local"
	"github.com/JakeFAU/academic-radar/internal/storage/postgres"
)

// EnvPrefix namespaces environment overrides, e.g. RADAR_STORE_PROVIDER=gcs.
const EnvPrefix = "RADAR"

// DefaultUserAgent is a desktop browser string; both portals reject obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Store providers.
const (
	StoreLocal    = "local"
	StoreGCS      = "gcs"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Notify providers.
const (
	NotifyNoop   = "noop"
	NotifyPubSub = "pubsub"
)

// Config captures all radar configuration knobs loaded via Viper.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Sources SourcesConfig `mapstructure:"sources"`
	Store   StoreConfig   `mapstructure:"store"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Serve   ServeConfig   `mapstructure:"serve"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// HTTPConfig configures the page fetcher.
type HTTPConfig struct {
	UserAgent          string        `mapstructure:"user_agent"`
	AcceptLanguage     string        `mapstructure:"accept_language"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// IngestConfig governs pagination, recency and retention.
type IngestConfig struct {
	Timezone     string        `mapstructure:"timezone"`
	LookbackDays int           `mapstructure:"lookback_days"`
	MaxPages     int           `mapstructure:"max_pages"`
	PageDelay    time.Duration `mapstructure:"page_delay"`
	RetentionCap int           `mapstructure:"retention_cap"`
	// RunTimeout bounds a whole run; zero disables the bound.
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

// SourceConfig describes one upstream listing site.
type SourceConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	PageURL   string `mapstructure:"page_url"`
	DetailURL string `mapstructure:"detail_url"`
}

// SourcesConfig lists the known upstream sites.
type SourcesConfig struct {
	TJN  SourceConfig `mapstructure:"tjn"`
	NSTC SourceConfig `mapstructure:"nstc"`
}

// StoreConfig selects and configures the listing store backend.
type StoreConfig struct {
	Provider string          `mapstructure:"provider"`
	Local    local.Config    `mapstructure:"local"`
	GCS      gcs.Config      `mapstructure:"gcs"`
	Postgres postgres.Config `mapstructure:"postgres"`
}

// NotifyConfig selects the new-listing publisher.
type NotifyConfig struct {
	Provider string        `mapstructure:"provider"`
	PubSub   pubsub.Config `mapstructure:"pubsub"`
}

// MetricsConfig controls metric export for batch runs.
type MetricsConfig struct {
	// Textfile is a node_exporter textfile collector path; empty disables it.
	Textfile string `mapstructure:"textfile"`
}

// ServeConfig controls the read-only HTTP server.
type ServeConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load builds a Config from an optional file plus the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper unmarshals and validates the settings held by v.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Store.Provider = strings.ToLower(strings.TrimSpace(cfg.Store.Provider))
	cfg.Notify.Provider = strings.ToLower(strings.TrimSpace(cfg.Notify.Provider))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", false)

	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("http.accept_language", "zh-TW,zh;q=0.9,en;q=0.8")
	v.SetDefault("http.timeout", "20s")
	v.SetDefault("http.insecure_skip_verify", true)

	v.SetDefault("ingest.timezone", "Asia/Taipei")
	v.SetDefault("ingest.lookback_days", 7)
	v.SetDefault("ingest.max_pages", 10)
	v.SetDefault("ingest.page_delay", "1s")
	v.SetDefault("ingest.retention_cap", 600)
	v.SetDefault("ingest.run_timeout", "10m")

	v.SetDefault("sources.tjn.enabled", true)
	v.SetDefault("sources.tjn.base_url", "https://tjn.moe.edu.tw")
	v.SetDefault("sources.tjn.page_url", "https://tjn.moe.edu.tw/EduJin/Opening/Index?page=%d")
	v.SetDefault("sources.nstc.enabled", true)
	v.SetDefault("sources.nstc.base_url", "https://www.nstc.gov.tw")
	v.SetDefault("sources.nstc.page_url", "https://www.nstc.gov.tw/careers/list?page=%d")
	v.SetDefault("sources.nstc.detail_url", "https://www.nstc.gov.tw/careers/detail?id=%s")

	v.SetDefault("store.provider", StoreLocal)
	v.SetDefault("store.local.path", "data/jobs.json")
	v.SetDefault("store.gcs.bucket", "")
	v.SetDefault("store.gcs.object", gcs.DefaultObject)
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.table", postgres.DefaultTable)
	v.SetDefault("store.postgres.max_conns", 4)
	v.SetDefault("store.postgres.max_conn_lifetime", "30m")

	v.SetDefault("notify.provider", NotifyNoop)
	v.SetDefault("notify.pubsub.project_id", "")
	v.SetDefault("notify.pubsub.topic_id", "")

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.shutdown_timeout", "10s")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be > 0")
	}
	if _, err := time.LoadLocation(c.Ingest.Timezone); err != nil {
		return fmt.Errorf("ingest.timezone %q: %w", c.Ingest.Timezone, err)
	}
	if c.Ingest.LookbackDays <= 0 {
		return fmt.Errorf("ingest.lookback_days must be > 0")
	}
	if c.Ingest.MaxPages <= 0 {
		return fmt.Errorf("ingest.max_pages must be > 0")
	}
	if c.Ingest.PageDelay < 0 {
		return fmt.Errorf("ingest.page_delay must be >= 0")
	}
	if c.Ingest.RetentionCap <= 0 {
		return fmt.Errorf("ingest.retention_cap must be > 0")
	}
	if err := c.Sources.validate(); err != nil {
		return err
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	return c.Notify.validate()
}

// Location returns the configured ingestion time zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Ingest.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s SourcesConfig) validate() error {
	if !s.TJN.Enabled && !s.NSTC.Enabled {
		return fmt.Errorf("at least one of sources.tjn or sources.nstc must be enabled")
	}
	if s.TJN.Enabled && !strings.Contains(s.TJN.PageURL, "%d") {
		return fmt.Errorf("sources.tjn.page_url must contain %%d")
	}
	if s.NSTC.Enabled {
		if !strings.Contains(s.NSTC.PageURL, "%d") {
			return fmt.Errorf("sources.nstc.page_url must contain %%d")
		}
		if s.NSTC.DetailURL != "" && !strings.Contains(s.NSTC.DetailURL, "%s") {
			return fmt.Errorf("sources.nstc.detail_url must contain %%s")
		}
	}
	return nil
}

func (s StoreConfig) validate() error {
	switch s.Provider {
	case StoreLocal:
		if strings.TrimSpace(s.Local.Path) == "" {
			return fmt.Errorf("store.local.path is required for the local store")
		}
	case StoreGCS:
		if strings.TrimSpace(s.GCS.Bucket) == "" {
			return fmt.Errorf("store.gcs.bucket is required for the gcs store")
		}
	case StorePostgres:
		if strings.TrimSpace(s.Postgres.DSN) == "" {
			return fmt.Errorf("store.postgres.dsn is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store.provider %q", s.Provider)
	}
	return nil
}

func (n NotifyConfig) validate() error {
	switch n.Provider {
	case NotifyNoop, "":
	case NotifyPubSub:
		if n.PubSub.ProjectID == "" || n.PubSub.TopicID == "" {
			return fmt.Errorf("notify.pubsub.project_id and notify.pubsub.topic_id are required")
		}
	default:
		return fmt.Errorf("unknown notify.provider %q", n.Provider)
	}
	return nil
}
