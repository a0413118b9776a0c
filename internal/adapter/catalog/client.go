package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/open-data-gateway/internal/domain"
	"github.com/couchcryptid/open-data-gateway/internal/observability"
	"github.com/jonboulle/clockwork"
)

// maxResponseBytes caps how much of a catalog response is read.
const maxResponseBytes = 16 << 20

// Client implements domain.CatalogFetcher against a CKAN-style REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a catalog client rooted at baseURL. A zero timeout leaves
// the transport default in place.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger.With("component", "catalog"),
	}
}

// Fetch issues GET baseURL+path and returns the response body. Any transport
// failure, including a non-2xx status, is returned as an error envelope of the
// form {"result":{"error":"..."}}.
func (c *Client) Fetch(ctx context.Context, path string) []byte {
	start := c.clock.Now()
	body, err := c.get(ctx, path)
	c.metrics.UpstreamDuration.WithLabelValues(observability.UpstreamCatalog).Observe(c.clock.Since(start).Seconds())

	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(observability.UpstreamCatalog, observability.OutcomeError).Inc()
		c.logger.Warn("catalog request failed", "path", path, "error", err)
		return domain.TransportErrorEnvelope(err)
	}

	c.metrics.UpstreamRequests.WithLabelValues(observability.UpstreamCatalog, observability.OutcomeSuccess).Inc()
	c.logger.Debug("catalog request", "path", path, "bytes", len(body))
	return body
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("catalog API error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
