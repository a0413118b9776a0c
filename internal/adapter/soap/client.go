package soap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/couchcryptid/open-data-gateway/internal/domain"
	"github.com/couchcryptid/open-data-gateway/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	envelopeNS       = "http://schemas.xmlsoap.org/soap/envelope/"
	contentType      = "text/xml; charset=utf-8"
	maxResponseBytes = 16 << 20
)

// Client implements domain.SOAPInvoker for a SOAP 1.1 service.
type Client struct {
	httpClient *http.Client
	endpoint   string
	namespace  string
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a SOAP client that posts to endpoint and qualifies
// methods with namespace. A zero timeout leaves the transport default in place.
func NewClient(endpoint, namespace string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint:  endpoint,
		namespace: namespace,
		clock:     clockwork.NewRealClock(),
		metrics:   metrics,
		logger:    logger.With("component", "soap"),
	}
}

// Invoke calls the parameterless method and returns the raw response body.
// The body is returned for any HTTP status since faults arrive as 500s with an
// XML payload. Only transport failures are errors.
func (c *Client) Invoke(ctx context.Context, method string) ([]byte, error) {
	start := c.clock.Now()
	body, err := c.post(ctx, method)
	c.metrics.UpstreamDuration.WithLabelValues(observability.UpstreamSOAP).Observe(c.clock.Since(start).Seconds())

	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(observability.UpstreamSOAP, observability.OutcomeError).Inc()
		c.logger.Warn("soap request failed", "method", method, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamTransport, err)
	}

	c.metrics.UpstreamRequests.WithLabelValues(observability.UpstreamSOAP, observability.OutcomeSuccess).Inc()
	return body, nil
}

func (c *Client) post(ctx context.Context, method string) ([]byte, error) {
	payload, err := BuildEnvelope(c.namespace, method)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("SOAPAction", `"`+c.namespace+method+`"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("soap non-success status", "method", method, "status", resp.StatusCode)
	}
	return body, nil
}

// BuildEnvelope renders a SOAP 1.1 request for a method with no parameters:
//
//	<soap:Envelope xmlns:soap="..."><soap:Body><method xmlns="namespace"/></soap:Body></soap:Envelope>
func BuildEnvelope(namespace, method string) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	envelope := doc.CreateElement("soap:Envelope")
	envelope.CreateAttr("xmlns:soap", envelopeNS)
	body := envelope.CreateElement("soap:Body")
	call := body.CreateElement(method)
	call.CreateAttr("xmlns", namespace)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("build envelope: %w", err)
	}
	return out, nil
}
