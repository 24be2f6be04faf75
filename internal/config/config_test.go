package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultUserAgent, cfg.HTTP.UserAgent)
	assert.Equal(t, 20*time.Second, cfg.HTTP.Timeout)
	assert.True(t, cfg.HTTP.InsecureSkipVerify)
	assert.Equal(t, 7, cfg.Ingest.LookbackDays)
	assert.Equal(t, 10, cfg.Ingest.MaxPages)
	assert.Equal(t, time.Second, cfg.Ingest.PageDelay)
	assert.Equal(t, 600, cfg.Ingest.RetentionCap)
	assert.Equal(t, "Asia/Taipei", cfg.Location().String())
	assert.True(t, cfg.Sources.TJN.Enabled)
	assert.True(t, cfg.Sources.NSTC.Enabled)
	assert.Equal(t, StoreLocal, cfg.Store.Provider)
	assert.Equal(t, "data/jobs.json", cfg.Store.Local.Path)
	assert.Equal(t, NotifyNoop, cfg.Notify.Provider)
	assert.Equal(t, ":8080", cfg.Serve.Addr)
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
logging:
  development: true
http:
  timeout: 5s
  insecure_skip_verify: false
ingest:
  max_pages: 3
  page_delay: 250ms
  retention_cap: 100
sources:
  nstc:
    enabled: false
store:
  provider: GCS
  gcs:
    bucket: radar-archive
notify:
  provider: pubsub
  pubsub:
    project_id: radar
    topic_id: new-listings
metrics:
  textfile: /var/lib/node_exporter/radar.prom
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.False(t, cfg.HTTP.InsecureSkipVerify)
	assert.Equal(t, 3, cfg.Ingest.MaxPages)
	assert.Equal(t, 250*time.Millisecond, cfg.Ingest.PageDelay)
	assert.Equal(t, 100, cfg.Ingest.RetentionCap)
	assert.False(t, cfg.Sources.NSTC.Enabled)
	assert.Equal(t, StoreGCS, cfg.Store.Provider)
	assert.Equal(t, "radar-archive", cfg.Store.GCS.Bucket)
	assert.Equal(t, "jobs.json", cfg.Store.GCS.Object)
	assert.Equal(t, "new-listings", cfg.Notify.PubSub.TopicID)
	assert.Equal(t, "/var/lib/node_exporter/radar.prom", cfg.Metrics.Textfile)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RADAR_STORE_PROVIDER", "postgres")
	t.Setenv("RADAR_STORE_POSTGRES_DSN", "postgres://radar@localhost/radar")
	t.Setenv("RADAR_INGEST_LOOKBACK_DAYS", "14")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store.Provider)
	assert.Equal(t, "postgres://radar@localhost/radar", cfg.Store.Postgres.DSN)
	assert.Equal(t, "listings", cfg.Store.Postgres.Table)
	assert.Equal(t, 14, cfg.Ingest.LookbackDays)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	cases := map[string]func(*Config){
		"timeout":         func(c *Config) { c.HTTP.Timeout = 0 },
		"timezone":        func(c *Config) { c.Ingest.Timezone = "Mars/Olympus" },
		"lookback":        func(c *Config) { c.Ingest.LookbackDays = 0 },
		"max pages":       func(c *Config) { c.Ingest.MaxPages = -1 },
		"delay":           func(c *Config) { c.Ingest.PageDelay = -time.Second },
		"cap":             func(c *Config) { c.Ingest.RetentionCap = 0 },
		"no sources":      func(c *Config) { c.Sources.TJN.Enabled, c.Sources.NSTC.Enabled = false, false },
		"tjn template":    func(c *Config) { c.Sources.TJN.PageURL = "https://tjn.moe.edu.tw/" },
		"nstc detail":     func(c *Config) { c.Sources.NSTC.DetailURL = "https://www.nstc.gov.tw/detail" },
		"store provider":  func(c *Config) { c.Store.Provider = "s3" },
		"local path":      func(c *Config) { c.Store.Local.Path = " " },
		"gcs bucket":      func(c *Config) { c.Store.Provider = StoreGCS },
		"postgres dsn":    func(c *Config) { c.Store.Provider = StorePostgres },
		"notify provider": func(c *Config) { c.Notify.Provider = "sns" },
		"pubsub topic":    func(c *Config) { c.Notify.Provider = NotifyPubSub },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	mem := base
	mem.Store.Provider = StoreMemory
	assert.NoError(t, mem.Validate())
}
