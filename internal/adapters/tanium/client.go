// Package tanium implements the inventory data source against the Tanium REST API.
package tanium

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/target/repeater/internal/core"
	apperrors "github.com/target/repeater/internal/errors"
)

const (
	reportsPath        = "/plugin/products/asset/private/reports"
	viewsPath          = "/plugin/products/asset/v1/views/"
	assetsPath         = "/plugin/products/asset/v1/assets"
	savedQuestionsPath = "/api/v2/saved_questions"
	questionResultPath = "/api/v2/result_data/saved_question/"

	// assetPageLimit requests every asset of a view in a single page.
	assetPageLimit = "10000000"
)

// Options configures the Tanium client.
type Options struct {
	// Server is the Tanium host, optionally with a scheme. https is assumed when none is given.
	Server string
	// Token is sent in the session header.
	Token   string
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
	// HTTPClient overrides the default client built from Timeout and InsecureSkipVerify.
	HTTPClient *http.Client
	// Catalog caches catalog listings between lookups. Optional.
	Catalog *core.CatalogCacheService
	Logger  *slog.Logger
}

// Client talks to the Tanium asset and saved question APIs.
type Client struct {
	baseURL string
	token   string
	hc      *http.Client
	catalog *core.CatalogCacheService
	logger  *slog.Logger
}

var _ core.DataSourceClient = (*Client)(nil)

// NewClient builds a Tanium client. Server is required.
func NewClient(opts Options) (*Client, error) {
	server := strings.TrimRight(strings.TrimSpace(opts.Server), "/")
	if server == "" {
		return nil, apperrors.ConfigField("TANIUM_SERVER", "tanium server is required")
	}
	if !strings.Contains(server, "://") {
		server = "https://" + server
	}
	if _, err := url.Parse(server); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "invalid tanium server")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	hc := opts.HTTPClient
	if hc == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			//nolint:gosec // opt-in via TANIUM_INSECURE_SKIP_VERIFY
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		hc = &http.Client{Timeout: timeout, Transport: transport}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: server,
		token:   opts.Token,
		hc:      hc,
		catalog: opts.Catalog,
		logger:  logger.With("component", "tanium_client"),
	}, nil
}

// listCatalog returns a catalog listing body, served from the catalog cache when possible.
// cached reports whether the body came from the cache.
func (c *Client) listCatalog(ctx context.Context, kind core.CatalogKind, path string) (body []byte, cached bool, err error) {
	if body := c.catalog.Get(ctx, kind); len(body) > 0 {
		c.logger.DebugContext(ctx, "catalog cache hit", "catalog", string(kind))
		return body, true, nil
	}
	body, err = c.fetchCatalog(ctx, kind, path)
	return body, false, err
}

// fetchCatalog lists a catalog from Tanium and refreshes its cache entry.
func (c *Client) fetchCatalog(ctx context.Context, kind core.CatalogKind, path string) ([]byte, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	c.catalog.Put(ctx, kind, body)
	return body, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode tanium request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "create tanium request")
	}
	req.Header.Set("session", c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeCanceled, "tanium request canceled")
		}
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeTransport, "tanium %s %s", method, path)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return nil, apperrors.Wrapf(readErr, apperrors.ErrCodeTransport, "read tanium response %s", path)
	}
	if closeErr != nil {
		c.logger.DebugContext(ctx, "close tanium response body", "error", closeErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Newf(apperrors.ErrCodeTransport, "tanium %s %s: %s: %s",
			method, path, resp.Status, truncate(strings.TrimSpace(string(respBody)), 256))
	}
	return respBody, nil
}

// decodeJSON decodes a body keeping numbers as json.Number so IDs and counts round-trip exactly.
func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeParse, "decode tanium response")
	}
	return nil
}

// idString renders a decoded JSON identifier.
func idString(v any) (string, error) {
	switch id := v.(type) {
	case json.Number:
		return id.String(), nil
	case string:
		if id == "" {
			return "", apperrors.Parsef("empty id")
		}
		return id, nil
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	default:
		return "", apperrors.Parsef("unexpected id type %T", v)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// pathID escapes an identifier for use as a path segment.
func pathID(id string) string {
	return url.PathEscape(id)
}

func ambiguous(kind, name string, count int) error {
	return apperrors.NotFoundf("%s name %q is ambiguous: %d matches", kind, name, count)
}

func notFound(kind, name string) error {
	return apperrors.NotFoundf("%s %q not found", kind, name)
}
