package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/academic-radar/internal/config"
	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/logging"
	"github.com/JakeFAU/academic-radar/internal/publisher"
	"github.com/JakeFAU/academic-radar/internal/storage/local"
	"github.com/JakeFAU/academic-radar/internal/storage/memory"
)

func TestMain(m *testing.M) {
	logging.InitLogger()
	os.Exit(m.Run())
}

// pageFetcher serves one TJN table on page 1 and an empty page afterwards.
type pageFetcher struct {
	firstPage string
	requests  []string
}

func (f *pageFetcher) Fetch(_ context.Context, url string, _ http.Header) ([]byte, error) {
	f.requests = append(f.requests, url)
	if strings.HasSuffix(url, "page=1") {
		return []byte(f.firstPage), nil
	}
	return []byte("<html><body></body></html>"), nil
}

func tjnPage(published string) string {
	return fmt.Sprintf(`<table><tbody><tr>
<td>國立清華大學物理學系</td><td>專任助理教授</td><td>新竹市</td>
<td>%s</td><td>-</td><td><a href="/EduJin/Opening/Detail/42">詳細</a></td>
</tr></tbody></table>`, published)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Store.Provider = config.StoreMemory
	cfg.Sources.NSTC.Enabled = false
	cfg.Ingest.PageDelay = 0
	return cfg
}

func TestNewAppDefaults(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &memory.ListingStore{}, a.GetStore())
	assert.Equal(t, publisher.Noop{}, a.publisher)
	assert.NotNil(t, a.GetRecorder())
	assert.NotNil(t, a.GetLogger())
	assert.Equal(t, cfg, a.Config())
}

func TestNewAppLocalStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Provider = config.StoreLocal
	cfg.Store.Local = local.Config{Path: filepath.Join(t.TempDir(), "jobs.json")}

	a, err := NewApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	assert.IsType(t, &local.ListingStore{}, a.GetStore())
}

func TestNewAppRejectsUnknownProviders(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Provider = "dropbox"
	_, err := NewApp(context.Background(), cfg, nil)
	require.ErrorContains(t, err, "unknown store provider")

	cfg = testConfig(t)
	cfg.Notify.Provider = "smtp"
	_, err = NewApp(context.Background(), cfg, nil)
	require.ErrorContains(t, err, "unknown notify provider")
}

func TestSourcesFollowsEnabledFlags(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources.NSTC.Enabled = true
	a, err := NewApp(context.Background(), cfg, nil, WithFetcher(&pageFetcher{}))
	require.NoError(t, err)

	adapters, err := a.Sources()
	require.NoError(t, err)
	require.Len(t, adapters, 2)
	assert.Equal(t, listing.SourceMOE, adapters[0].Name())
	assert.Equal(t, listing.SourceNSTC, adapters[1].Name())

	a.cfg.Sources.TJN.Enabled = false
	a.cfg.Sources.NSTC.Enabled = false
	_, err = a.Sources()
	require.Error(t, err)
}

func TestRunnerIngestsIntoStore(t *testing.T) {
	cfg := testConfig(t)
	today := time.Now().In(cfg.Location()).Format("2006/01/02")
	fetcher := &pageFetcher{firstPage: tjnPage(today)}
	st := memory.NewListingStore()

	a, err := NewApp(context.Background(), cfg, zap.NewNop(), WithFetcher(fetcher), WithStore(st))
	require.NoError(t, err)
	defer a.Close()

	runner, err := a.NewRunner()
	require.NoError(t, err)
	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.New)
	assert.Equal(t, 1, summary.Stored)
	require.Len(t, summary.PerSource, 1)
	assert.Equal(t, 2, summary.PerSource[0].Pages)

	stored, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "專任助理教授", stored[0].Title)
	assert.Equal(t, "https://tjn.moe.edu.tw/EduJin/Opening/Detail/42", stored[0].Link)
	assert.Len(t, fetcher.requests, 2)
}

func TestNewServerServesStore(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApp(context.Background(), cfg, nil, WithStore(memory.NewListingStore()))
	require.NoError(t, err)
	assert.NotNil(t, a.NewServer().Handler())
}
