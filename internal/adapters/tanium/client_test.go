package tanium

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/repeater/internal/core"
	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
	"github.com/target/repeater/internal/mocks"
)

const testToken = "token-123"

func newTestClient(t *testing.T, mux *http.ServeMux, catalog *core.CatalogCacheService) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("session") != testToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{Server: srv.URL, Token: testToken, Timeout: 5 * time.Second, Catalog: catalog})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigInvalid(err))

	c, err := NewClient(Options{Server: "tanium.example.com/", InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.Equal(t, "https://tanium.example.com", c.baseURL)
}

func TestFindReportByName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+reportsPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"data":[
			{"id":11,"reportName":"Weekly Hosts"},
			{"id":12,"reportName":"Software"},
			{"id":13,"reportName":"Dup"},
			{"id":14,"reportName":"Dup"}
		]}`)
	})
	c := newTestClient(t, mux, nil)
	ctx := context.Background()

	h, err := c.FindReportByName(ctx, "Software")
	require.NoError(t, err)
	assert.Equal(t, model.ReportHandle{ID: "12", Name: "Software"}, h)

	_, err = c.FindReportByName(ctx, "software")
	assert.True(t, apperrors.IsLookupNotFound(err))

	_, err = c.FindReportByName(ctx, "Dup")
	require.Error(t, err)
	assert.True(t, apperrors.IsLookupNotFound(err))
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestFindViewByName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+viewsPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"data":[{"id":7,"viewName":"Hosts","definition":{"attributes":[
			{"tableName":"ci_item","fieldName":"name","displayName":"Computer Name"},
			{"tableName":"ci_network_adapter","fieldName":"ip","displayName":"IP"}
		]}}]}`)
	})
	c := newTestClient(t, mux, nil)

	h, err := c.FindViewByName(context.Background(), "Hosts")
	require.NoError(t, err)
	assert.Equal(t, "7", h.Definition.ID)
	assert.Equal(t, []model.ViewAttribute{
		{TableName: "ci_item", FieldName: "name", DisplayName: "Computer Name"},
		{TableName: "ci_network_adapter", FieldName: "ip", DisplayName: "IP"},
	}, h.Definition.Attributes)
}

func TestFindQuestionIDByName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+savedQuestionsPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"data":[{"id":4021,"name":"Running Processes"},{"id":"abc","name":"Broken"}]}`)
	})
	c := newTestClient(t, mux, nil)

	id, err := c.FindQuestionIDByName(context.Background(), "Running Processes")
	require.NoError(t, err)
	assert.Equal(t, int64(4021), id)

	_, err = c.FindQuestionIDByName(context.Background(), "Broken")
	assert.True(t, apperrors.IsParse(err))

	_, err = c.FindQuestionIDByName(context.Background(), "Missing")
	assert.True(t, apperrors.IsLookupNotFound(err))
}

func TestFetchReport_PreservesRowOrder(t *testing.T) {
	body := `{"columns":[{"name":"b","displayName":"Host"},{"name":"a","displayName":"Seen"}],
		"rows":[{"b":"host-a","a":3},{"b":"host-b","a":null}]}`

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+reportsPath+"/12/query", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req["id"] != float64(12) {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		writeJSON(w, body)
	})
	c := newTestClient(t, mux, nil)

	ds, err := c.FetchReport(context.Background(), model.ReportHandle{ID: "12", Name: "Weekly"})
	require.NoError(t, err)

	report, ok := ds.(*model.ReportResult)
	require.True(t, ok)
	assert.Equal(t, []model.ReportColumn{{Key: "b", Label: "Host"}, {Key: "a", Label: "Seen"}}, report.Columns)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, []any{"host-a", json.Number("3")}, report.Rows[0])
	assert.Equal(t, []any{"host-b", nil}, report.Rows[1])
	assert.Equal(t, body, string(report.Raw))
}

func TestFetchView(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+assetsPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("viewId") != "7" || r.URL.Query().Get("limit") != assetPageLimit {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		writeJSON(w, `{"data":[{"name":"host-a","ci_network_adapter":[{"ip":"10.0.0.1"}]},{"name":"host-b"}]}`)
	})
	c := newTestClient(t, mux, nil)

	handle := model.ViewHandle{Definition: model.ViewDefinition{ID: "7", Name: "Hosts"}}
	ds, err := c.FetchView(context.Background(), handle)
	require.NoError(t, err)

	view, ok := ds.(*model.ViewResult)
	require.True(t, ok)
	assert.Equal(t, handle.Definition, view.View)
	require.Len(t, view.Entities, 2)
	assert.Equal(t, "host-b", view.Entities[1]["name"])
	assert.JSONEq(t, `[{"name":"host-a","ci_network_adapter":[{"ip":"10.0.0.1"}]},{"name":"host-b"}]`, string(view.Raw))
}

func TestFetchQuestion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+questionResultPath+"4021", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("most_recent_flag") != "1" {
			http.Error(w, "missing flag", http.StatusBadRequest)
			return
		}
		writeJSON(w, `{"data":{"result_sets":[{
			"columns":[{"name":"Computer Name"},{"name":"Count"}],
			"rows":[
				{"data":[[{"text":"host-a"}],[{"text":"2"}]]},
				{"data":[[{"text":"host-b"}],[]]}
			]}]}}`)
	})
	c := newTestClient(t, mux, nil)

	ds, err := c.FetchQuestion(context.Background(), 4021)
	require.NoError(t, err)

	q, ok := ds.(*model.QuestionResult)
	require.True(t, ok)
	assert.Equal(t, []string{"Computer Name", "Count"}, q.Columns)
	assert.Equal(t, [][]any{{"host-a", "2"}, {"host-b", nil}}, q.Rows)
}

func TestClient_ErrorKinds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+reportsPath, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("GET "+viewsPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"data":[`)
	})
	mux.HandleFunc("GET "+savedQuestionsPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"items":[]}`)
	})
	c := newTestClient(t, mux, nil)
	ctx := context.Background()

	_, err := c.FindReportByName(ctx, "x")
	assert.True(t, apperrors.IsTransport(err), "server error: %v", err)

	_, err = c.FindViewByName(ctx, "x")
	assert.True(t, apperrors.IsParse(err), "truncated body: %v", err)

	_, err = c.FindQuestionIDByName(ctx, "x")
	assert.True(t, apperrors.IsParse(err), "missing data: %v", err)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewClient(Options{Server: srv.URL, Token: "wrong"})
	require.NoError(t, err)

	_, err = c.FindViewByName(context.Background(), "Hosts")
	assert.True(t, apperrors.IsTransport(err))
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := NewClient(Options{Server: addr, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.FindReportByName(context.Background(), "x")
	assert.True(t, apperrors.IsTransport(err))
}

func TestClient_UsesCatalogCache(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+reportsPath, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeJSON(w, `{"data":[{"id":1,"reportName":"Fresh"}]}`)
	})

	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCacheRepository(ctrl)
	cached := []byte(`{"data":[{"id":9,"reportName":"Cached"}]}`)
	gomock.InOrder(
		repo.EXPECT().Get(gomock.Any(), "tanium:catalog:reports").Return(cached, nil),
		repo.EXPECT().Get(gomock.Any(), "tanium:catalog:reports").Return(nil, nil),
		repo.EXPECT().Set(gomock.Any(), "tanium:catalog:reports", gomock.Any(), time.Minute).Return(nil),
	)
	catalog := core.NewCatalogCacheService(core.CatalogCacheServiceOptions{
		Cache:  repo,
		Config: core.CatalogCacheConfig{TTL: time.Minute},
	})
	c := newTestClient(t, mux, catalog)

	h, err := c.FindReportByName(context.Background(), "Cached")
	require.NoError(t, err)
	assert.Equal(t, "9", h.ID)
	assert.Equal(t, int32(0), hits.Load())

	h, err = c.FindReportByName(context.Background(), "Fresh")
	require.NoError(t, err)
	assert.Equal(t, "1", h.ID)
	assert.Equal(t, int32(1), hits.Load())
}

func TestOrderedValues(t *testing.T) {
	values, err := orderedValues(json.RawMessage(`{"z":1,"a":{"n":[1,2]},"m":"x"}`))
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, json.Number("1"), values[0])
	assert.Equal(t, "x", values[2])

	_, err = orderedValues(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func newMockCatalog(t *testing.T) (*mocks.MockCacheRepository, *core.CatalogCacheService) {
	t.Helper()
	repo := mocks.NewMockCacheRepository(gomock.NewController(t))
	return repo, core.NewCatalogCacheService(core.CatalogCacheServiceOptions{
		Cache:  repo,
		Config: core.CatalogCacheConfig{TTL: time.Minute},
	})
}

func TestFindViewByName_StaleCachedCatalogIsListedAgain(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+viewsPath, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeJSON(w, `{"data":[{"id":5,"viewName":"New View","definition":{"attributes":[
			{"tableName":"ci_item","fieldName":"name","displayName":"Name"}]}}]}`)
	})

	repo, catalog := newMockCatalog(t)
	gomock.InOrder(
		repo.EXPECT().Get(gomock.Any(), "tanium:catalog:views").
			Return([]byte(`{"data":[{"id":1,"viewName":"Old View","definition":{"attributes":[]}}]}`), nil),
		repo.EXPECT().Delete(gomock.Any(), "tanium:catalog:views").Return(true, nil),
		repo.EXPECT().Set(gomock.Any(), "tanium:catalog:views", gomock.Any(), time.Minute).Return(nil),
	)
	c := newTestClient(t, mux, catalog)

	h, err := c.FindViewByName(context.Background(), "New View")
	require.NoError(t, err)
	assert.Equal(t, "5", h.Definition.ID)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFindReportByName_CorruptCachedCatalogIsListedAgain(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+reportsPath, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeJSON(w, `{"data":[{"id":3,"reportName":"Weekly Hosts"}]}`)
	})

	repo, catalog := newMockCatalog(t)
	gomock.InOrder(
		repo.EXPECT().Get(gomock.Any(), "tanium:catalog:reports").Return([]byte(`{"data":[`), nil),
		repo.EXPECT().Delete(gomock.Any(), "tanium:catalog:reports").Return(true, nil),
		repo.EXPECT().Set(gomock.Any(), "tanium:catalog:reports", gomock.Any(), time.Minute).Return(nil),
	)
	c := newTestClient(t, mux, catalog)

	h, err := c.FindReportByName(context.Background(), "Weekly Hosts")
	require.NoError(t, err)
	assert.Equal(t, "3", h.ID)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFindReportByName_MissingAfterRelistIsNotFound(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+reportsPath, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeJSON(w, `{"data":[{"id":3,"reportName":"Weekly Hosts"}]}`)
	})

	repo, catalog := newMockCatalog(t)
	cached := []byte(`{"data":[{"id":3,"reportName":"Weekly Hosts"}]}`)
	gomock.InOrder(
		repo.EXPECT().Get(gomock.Any(), "tanium:catalog:reports").Return(cached, nil),
		repo.EXPECT().Delete(gomock.Any(), "tanium:catalog:reports").Return(true, nil),
		repo.EXPECT().Set(gomock.Any(), "tanium:catalog:reports", gomock.Any(), time.Minute).Return(nil),
	)
	c := newTestClient(t, mux, catalog)

	_, err := c.FindReportByName(context.Background(), "Monthly Hosts")
	require.Error(t, err)
	assert.True(t, apperrors.IsLookupNotFound(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFindReportByName_UncachedMissIsNotListedAgain(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+reportsPath, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeJSON(w, `{"data":[]}`)
	})
	c := newTestClient(t, mux, nil)

	_, err := c.FindReportByName(context.Background(), "Weekly Hosts")
	require.Error(t, err)
	assert.True(t, apperrors.IsLookupNotFound(err))
	assert.Equal(t, int32(1), hits.Load())
}
