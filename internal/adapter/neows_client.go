// Package adapter provides the client for the external NeoWs feed.
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	apperrors "github.com/neo-scanner/internal/errors"
	"github.com/neo-scanner/internal/logging"
	"github.com/neo-scanner/internal/planner"
	"github.com/neo-scanner/internal/retry"
)

// NeoWsClient fetches date-windowed NEO feed payloads. All requests pass
// through a single-slot rate gate, so the minimum inter-request spacing
// holds even if callers ever run windows concurrently.
type NeoWsClient struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	retryCfg *retry.RetryConfig
}

// ClientConfig configures the NeoWs client
type ClientConfig struct {
	APIKey             string
	BaseURL            string
	MinRequestInterval time.Duration // spacing between request starts
	MaxAttempts        int           // attempts per window before giving up
	RequestTimeout     time.Duration
	InitialBackoff     time.Duration   // zero means 1s
	MaxBackoff         time.Duration   // zero means 30s
	Clock              clockwork.Clock // backoff clock, real when nil
}

// NewNeoWsClient creates a new feed client
func NewNeoWsClient(cfg *ClientConfig) *NeoWsClient {
	retryCfg := retry.DefaultRetryConfig()
	retryCfg.MaxAttempts = cfg.MaxAttempts
	if cfg.InitialBackoff > 0 {
		retryCfg.InitialDelay = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		retryCfg.MaxDelay = cfg.MaxBackoff
	}
	retryCfg.Clock = cfg.Clock

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &NeoWsClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		// burst 1: a token refills once per interval, so consecutive request
		// starts are never closer than the interval
		limiter:  rate.NewLimiter(rate.Every(cfg.MinRequestInterval), 1),
		retryCfg: retryCfg,
	}
}

// FetchWindow fetches the feed payload for one window. Transient failures
// (timeouts, 5xx, rate-limit responses) are retried with exponential backoff
// up to the configured attempt budget; exhausting the budget surfaces a
// permanent failure. Permanent failures (bad credential, other 4xx) are
// returned on the first occurrence.
func (c *NeoWsClient) FetchWindow(ctx context.Context, w planner.Window) (*FeedPayload, error) {
	logger := logging.FromContext(ctx).WithField("window", w.String())

	var payload *FeedPayload
	result := retry.WithExponentialBackoff(ctx, c.retryCfg, func(ctx context.Context, attempt int) error {
		p, err := c.doFetch(ctx, w)
		if err != nil {
			return err
		}
		payload = p
		return nil
	})

	if result.Success {
		logger.WithField("attempts", result.Attempts).Debug("Window fetched")
		return payload, nil
	}

	err := result.LastError
	if apperrors.IsTransient(err) {
		// Silent loss of a window would break contiguous coverage, so
		// exhaustion is reported upward as a permanent failure.
		return nil, apperrors.NewRetriesExhaustedError(result.Attempts, err)
	}
	return nil, err
}

// doFetch performs a single feed request for the window
func (c *NeoWsClient) doFetch(ctx context.Context, w planner.Window) (*FeedPayload, error) {
	// Blocking gate, not a counter: holds the caller until the spacing from
	// the previous request start has elapsed.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s?start_date=%s&end_date=%s&api_key=%s",
		c.baseURL, w.StartDate(), w.EndDate(), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.NewPermanentFetchError("malformed feed request", 0, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyNetworkError(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) // nolint:errcheck // drain for connection reuse
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, classifyStatus(resp.StatusCode, string(body))
	}

	var payload FeedPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewMalformedPayloadError("body", err)
	}
	if payload.NearEarthObjects == nil {
		return nil, apperrors.NewMalformedPayloadError("near_earth_objects", nil)
	}

	return &payload, nil
}

// classifyNetworkError maps transport-level failures. Timeouts and broken
// connections are transient; context cancellation is passed through.
func classifyNetworkError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewTransientFetchError("feed request timed out", 0, err)
	}

	return apperrors.NewTransientFetchError("feed request failed", 0, err)
}

// classifyStatus maps non-200 responses onto the transient/permanent
// taxonomy. Rate-limit responses and 5xx are transient; a rejected
// credential or any other 4xx will recur on retry and aborts the run.
func classifyStatus(status int, body string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return apperrors.NewTransientFetchError("feed rate limit exceeded", status, nil)
	case status >= 500:
		return apperrors.NewTransientFetchError(
			fmt.Sprintf("feed server error: %s", http.StatusText(status)), status, nil)
	case strings.Contains(body, "OVER_RATE_LIMIT"):
		// Quota exhaustion is reported as 403 with an explicit marker; it is
		// a rate limit, not a credential problem.
		return apperrors.NewTransientFetchError("feed rate limit exceeded", status, nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.NewPermanentFetchError("feed rejected credential", status, nil)
	case status >= 400:
		return apperrors.NewPermanentFetchError(
			fmt.Sprintf("feed rejected request: %s", http.StatusText(status)), status, nil)
	default:
		return apperrors.NewTransientFetchError(
			fmt.Sprintf("unexpected feed status %d", status), status, nil)
	}
}
