package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/repeater/config"
	"github.com/target/repeater/internal/data"
	"github.com/target/repeater/internal/domain/model"
	"github.com/target/repeater/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAppConfig(t *testing.T, storePath, taniumURL string) *config.AppConfig {
	t.Helper()
	cfg := &config.AppConfig{
		JobStore: config.JobStoreConfig{Driver: config.JobStoreDriverCSV, Path: storePath},
		Tanium:   config.TaniumConfig{Server: taniumURL, Token: "token", Timeout: 5 * time.Second},
		ObjectStore: config.ObjectStoreConfig{
			Enabled: false,
		},
	}
	cfg.Sanitize()
	return cfg
}

func TestBuildJobStore(t *testing.T) {
	store, err := BuildJobStore(config.JobStoreConfig{Driver: config.JobStoreDriverCSV, Path: "jobs.csv"}, nil, nil)
	require.NoError(t, err)
	csvStore, ok := store.(*data.CSVJobStore)
	require.True(t, ok)
	assert.Equal(t, "jobs.csv", csvStore.Path())

	_, err = BuildJobStore(config.JobStoreConfig{Driver: config.JobStoreDriverPostgres}, nil, nil)
	require.ErrorContains(t, err, "requires a database connection")

	_, err = BuildJobStore(config.JobStoreConfig{Driver: "sqlite"}, nil, nil)
	require.ErrorContains(t, err, `unknown job store driver "sqlite"`)
}

func TestNewCatalogCacheService_DisabledWithoutRedis(t *testing.T) {
	assert.Nil(t, newCatalogCacheService(nil, config.CacheConfig{Enabled: true}, nil))
	assert.Nil(t, newCatalogCacheService(nil, config.CacheConfig{Enabled: false}, nil))
}

func TestBuildFailureNotifier(t *testing.T) {
	disabled := buildFailureNotifier(nil, config.ObservabilityNotificationsConfig{})
	require.NotNil(t, disabled)
	assert.False(t, disabled.Enabled())

	enabled := buildFailureNotifier(nil, config.ObservabilityNotificationsConfig{
		Enabled: true,
		Timeout: time.Second,
		Slack: config.SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: "https://hooks.slack.test/services/x",
		},
	})
	assert.True(t, enabled.Enabled())
}

func TestBuildDestinations(t *testing.T) {
	cfg := testAppConfig(t, "jobs.csv", "tanium.test")

	router, err := buildDestinations(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, router.File)
	assert.Nil(t, router.ObjectStore)
	assert.Nil(t, router.Splunk)

	_, err = router.For(model.DestinationLogIngestion)
	require.Error(t, err)

	cfg.Splunk = config.SplunkConfig{Server: "splunk.test:8088", Token: "hec"}
	cfg.Splunk.Sanitize()
	router, err = buildDestinations(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, router.Splunk)
}

func TestNewServices_RequiresConfig(t *testing.T) {
	_, err := NewServices(context.Background(), nil)
	require.Error(t, err)

	cfg := testAppConfig(t, "jobs.csv", "")
	_, err = NewServices(context.Background(), &ServiceDeps{Config: cfg, Logger: testLogger()})
	require.ErrorContains(t, err, "build tanium client")
}

func TestRunServicesWithShutdown_RequiresScheduler(t *testing.T) {
	err := RunServicesWithShutdown(context.Background(), &ServiceContainer{}, nil)
	require.Error(t, err)
}

func TestRunServicesWithShutdown_SingleCycleDeliversFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /plugin/products/asset/v1/views/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":3,"viewName":"Hosts","definition":{"attributes":[
			{"tableName":"ci_item","fieldName":"name","displayName":"Computer Name"}]}}]}`)
	})
	mux.HandleFunc("GET /plugin/products/asset/v1/assets", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"name":"host-a"},{"name":"host-b"}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	out := filepath.Join(dir, "hosts.csv")
	storePath := testutil.WriteJobStoreFile(t, dir, "config.txt",
		testutil.NewJobRecord("Hosts").WithSource(model.SourceView, "Hosts").WithLocation(out).Build(),
	)

	services, err := NewServices(context.Background(), &ServiceDeps{
		Config: testAppConfig(t, storePath, srv.URL),
		Logger: testLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, services.Close()) })

	require.NoError(t, RunServicesWithShutdown(context.Background(), services, testLogger()))

	exported, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "name\nhost-a\nhost-b\n", string(exported))

	jobs, err := services.Store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.NotNil(t, jobs[0].LastRun)
}
