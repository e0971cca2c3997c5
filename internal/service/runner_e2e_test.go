package service_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/repeater/internal/adapters/destination"
	"github.com/target/repeater/internal/adapters/tanium"
	"github.com/target/repeater/internal/data"
	"github.com/target/repeater/internal/domain/model"
	"github.com/target/repeater/internal/service"
	"github.com/target/repeater/internal/testutil"
)

const (
	viewsJSON = `{"data":[{"id":7,"viewName":"All Hosts","definition":{"attributes":[
		{"tableName":"ci_item","fieldName":"name","displayName":"Computer Name"},
		{"tableName":"ci_network_adapter","fieldName":"ip","displayName":"IP"}
	]}}]}`
	assetsJSON = `{"data":[{"name":"host-a","ci_network_adapter":[
		{"ip":"10.0.0.1"},{"ip":"10.0.0.2"},{"ip":"10.0.0.3"}
	]}]}`
	mixedAssetsJSON = `{"data":[
		{"name":"host-a","ci_network_adapter":[{"ip":"10.0.0.1"},{"ip":"10.0.0.2"}]},
		{"name":"host-b"}
	]}`
)

func newInventoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newInventoryServerWithAssets(t, assetsJSON)
}

func newInventoryServerWithAssets(t *testing.T, assets string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /plugin/products/asset/v1/views/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, viewsJSON)
	})
	mux.HandleFunc("GET /plugin/products/asset/v1/assets", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("viewId") != "7" {
			http.Error(w, "unknown view", http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, assets)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newEndToEndRunner(t *testing.T, storePath string, clock *data.FixedTimeProvider, server string) *service.JobRunner {
	t.Helper()
	client, err := tanium.NewClient(tanium.Options{Server: server, Token: "t", Timeout: 5 * time.Second})
	require.NoError(t, err)

	return service.NewJobRunner(service.JobRunnerOptions{
		Store:       data.NewCSVJobStore(data.CSVJobStoreOptions{Path: storePath, Clock: clock}),
		Source:      client,
		Destination: &destination.Router{File: destination.NewFileDestination(nil)},
		Clock:       clock,
	})
}

func TestRunCycle_EndToEndViewFlattenToCSV(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "exports", "hosts.csv")
	storePath := testutil.WriteJobStoreFile(t, dir, "config.txt",
		testutil.NewJobRecord("Hosts").
			WithSource(model.SourceView, "All Hosts").
			WithLocation(out).
			WithFlatten(true).
			Build(),
	)

	now := testutil.TestTime()
	clock := data.NewFixedTimeProvider(now)
	srv := newInventoryServer(t)
	ctx := context.Background()

	summary, err := newEndToEndRunner(t, storePath, clock, srv.URL).RunCycle(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)
	require.Equal(t, model.OutcomeSucceeded, summary.Outcomes[0].Status, "err: %v", summary.Outcomes[0].Err)

	exported, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(exported), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "name,ci_network_adapter ip", lines[0])
	assert.Equal(t, "host-a,10.0.0.3", lines[3])

	stored, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Contains(t, string(stored), now.Format(model.LastRunLayout))

	// A second cycle an hour later finds the job not yet due.
	clock.AddTime(time.Hour)
	summary, err = newEndToEndRunner(t, storePath, clock, srv.URL).RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSkippedNotDue, summary.Outcomes[0].Status)

	again, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Equal(t, string(stored), string(again))
}

func TestRunCycle_EndToEndMissingViewLeavesStoreUnchanged(t *testing.T) {
	dir := t.TempDir()
	last := testutil.TestTime().Add(-72 * time.Hour)
	storePath := testutil.WriteJobStoreFile(t, dir, "config.txt",
		testutil.NewJobRecord("Ghost").
			WithSource(model.SourceView, "No Such View").
			WithLocation(filepath.Join(dir, "ghost.csv")).
			WithLastRun(last).
			Build(),
	)
	before, err := os.ReadFile(storePath)
	require.NoError(t, err)

	clock := data.NewFixedTimeProvider(testutil.TestTime())
	srv := newInventoryServer(t)

	summary, err := newEndToEndRunner(t, storePath, clock, srv.URL).RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSkippedNoData, summary.Outcomes[0].Status)

	after, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.NoFileExists(t, filepath.Join(dir, "ghost.csv"))
}

func TestRunCycle_EndToEndEntityWithoutAdaptersKeepsOneRow(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "hosts.csv")
	storePath := testutil.WriteJobStoreFile(t, dir, "config.txt",
		testutil.NewJobRecord("Hosts").
			WithSource(model.SourceView, "All Hosts").
			WithLocation(out).
			WithFrequency(24).
			WithFlatten(true).
			Build(),
	)

	now := testutil.TestTime()
	clock := data.NewFixedTimeProvider(now)
	srv := newInventoryServerWithAssets(t, mixedAssetsJSON)

	summary, err := newEndToEndRunner(t, storePath, clock, srv.URL).RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.OutcomeSucceeded, summary.Outcomes[0].Status, "err: %v", summary.Outcomes[0].Err)
	require.NotNil(t, summary.Outcomes[0].UpdatedLastRun)
	assert.Equal(t, now, *summary.Outcomes[0].UpdatedLastRun)

	exported, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"name,ci_network_adapter ip\nhost-a,10.0.0.1\nhost-a,10.0.0.2\nhost-b,\n",
		string(exported))
}

func TestRunCycle_EndToEndMalformedLastRunDoesNotBlockOtherJobs(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	bad := testutil.NewJobRecord("Bad").
		WithSource(model.SourceView, "All Hosts").
		WithLocation(filepath.Join(dir, "bad.csv")).
		Build()
	bad.LastRun = "2026/10/18 08:00"
	storePath := testutil.WriteJobStoreFile(t, dir, "config.txt",
		testutil.NewJobRecord("Good").WithSource(model.SourceView, "All Hosts").WithLocation(good).Build(),
		bad,
	)

	now := testutil.TestTime()
	clock := data.NewFixedTimeProvider(now)
	srv := newInventoryServer(t)

	summary, err := newEndToEndRunner(t, storePath, clock, srv.URL).RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, model.OutcomeSucceeded, summary.Outcomes[0].Status, "err: %v", summary.Outcomes[0].Err)
	assert.Equal(t, model.OutcomeFailed, summary.Outcomes[1].Status)
	assert.Equal(t, model.StageUnsupported, summary.Outcomes[1].Stage)
	assert.FileExists(t, good)
	assert.NoFileExists(t, filepath.Join(dir, "bad.csv"))

	stored, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Contains(t, string(stored), now.Format(model.LastRunLayout))
	assert.Contains(t, string(stored), ",2026/10/18 08:00,")
}
