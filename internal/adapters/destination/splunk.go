package destination

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/repeater/internal/core"
	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
)

const splunkRawPath = "/services/collector/raw"

// SplunkConfig configures the Splunk raw collector destination.
type SplunkConfig struct {
	// Server is the collector host, optionally with a scheme. https is assumed when none is given.
	Server             string
	Token              string
	Timeout            time.Duration
	InsecureSkipVerify bool
	Client             *http.Client
	Logger             *slog.Logger
}

// SplunkDestination posts the raw dataset body to a Splunk raw collector endpoint.
type SplunkDestination struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *slog.Logger
}

var _ core.Destination = (*SplunkDestination)(nil)

// NewSplunkDestination builds a SplunkDestination. Server is required.
func NewSplunkDestination(cfg SplunkConfig) (*SplunkDestination, error) {
	server := strings.TrimRight(strings.TrimSpace(cfg.Server), "/")
	if server == "" {
		return nil, apperrors.ConfigField("SPLUNK_SERVER", "splunk server is required")
	}
	if !strings.Contains(server, "://") {
		server = "https://" + server
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.InsecureSkipVerify {
			//nolint:gosec // opt-in via SPLUNK_INSECURE_SKIP_VERIFY
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		hc = &http.Client{Timeout: timeout, Transport: transport}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SplunkDestination{
		endpoint: server + splunkRawPath,
		token:    strings.TrimSpace(cfg.Token),
		client:   hc,
		logger:   logger.With("component", "splunk_destination"),
	}, nil
}

// Deliver posts the raw dataset. The serialized payload bytes are not used.
func (d *SplunkDestination) Deliver(ctx context.Context, job *model.JobSpec, p core.Payload) error {
	if p.Raw == nil {
		return apperrors.Newf(apperrors.ErrCodeDelivery, "job %q has no raw dataset to ingest", job.Name)
	}
	body := p.Raw.Body()
	if len(body) == 0 {
		return apperrors.Newf(apperrors.ErrCodeDelivery, "job %q raw dataset is empty", job.Name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "create splunk request")
	}
	req.Header.Set("Authorization", d.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "splunk request canceled")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeDelivery, "splunk request failed")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return d.handleErrorResponse(resp)
	}
	if err := drainAndClose(resp); err != nil {
		d.logger.DebugContext(ctx, "drain splunk response", "error", err)
	}
	d.logger.DebugContext(ctx, "ingested raw dataset", "job", job.Name, "bytes", len(body))
	return nil
}

func (d *SplunkDestination) handleErrorResponse(resp *http.Response) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	closeErr := resp.Body.Close()
	if readErr != nil {
		return apperrors.Wrapf(errors.Join(readErr, closeErr), apperrors.ErrCodeDelivery,
			"splunk collector %s", resp.Status)
	}
	return apperrors.Newf(apperrors.ErrCodeDelivery, "splunk collector %s: %s",
		resp.Status, strings.TrimSpace(string(respBody)))
}

func drainAndClose(resp *http.Response) error {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return errors.Join(
				fmt.Errorf("drain response body: %w", err),
				fmt.Errorf("close response body: %w", closeErr),
			)
		}
		return fmt.Errorf("drain response body: %w", err)
	}
	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}
	return nil
}
