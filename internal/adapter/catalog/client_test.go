package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/open-data-gateway/internal/domain"
	"github.com/couchcryptid/open-data-gateway/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
	searchBody        = `{"help":"https://catalog.data.gov/api/3/action/help_show?name=package_search","success":true,"result":{"count":1,"results":[{"id":"000f1c44"}]}}`
)

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		clock:      clockwork.NewRealClock(),
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// errorMessage adapts body and returns result.error.
func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	adapted, err := domain.AdaptCatalogResponse(body)
	require.NoError(t, err)

	var result struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(adapted, &result))
	return result.Error
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, domain.CatalogSearchPath, r.URL.Path)
		assert.Equal(t, contentTypeJSON, r.Header.Get("Accept"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, searchBody)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	body := c.Fetch(context.Background(), domain.CatalogSearchPath)

	assert.JSONEq(t, searchBody, string(body))
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(observability.UpstreamCatalog, observability.OutcomeSuccess)), 0)
}

func TestClient_Fetch_DetailsQueryPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/3/action/package_show", r.URL.Path)
		assert.Equal(t, "000f1c44-a0b8-402f-8d4b-a4b66dfb7734", r.URL.Query().Get("id"))
		_, _ = io.WriteString(w, `{"result":{"id":"000f1c44-a0b8-402f-8d4b-a4b66dfb7734"}}`)
	}))
	defer srv.Close()

	body := testClient(srv.URL).Fetch(context.Background(), domain.CatalogDetailsPath("000f1c44-a0b8-402f-8d4b-a4b66dfb7734"))
	assert.Contains(t, string(body), "000f1c44")
}

func TestClient_Fetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"success":false,"error":{"message":"Not found"}}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	body := c.Fetch(context.Background(), domain.CatalogDetailsPath("missing"))

	assert.Contains(t, errorMessage(t, body), "status 404")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(observability.UpstreamCatalog, observability.OutcomeError)), 0)
}

func TestClient_Fetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	body := testClient(url).Fetch(context.Background(), domain.CatalogSearchPath)

	require.True(t, json.Valid(body))
	assert.NotEmpty(t, errorMessage(t, body))
}

func TestClient_Fetch_InvalidBaseURL(t *testing.T) {
	body := testClient("http://bad host\x7f").Fetch(context.Background(), domain.CatalogSearchPath)
	assert.Contains(t, errorMessage(t, body), "create request")
}

func TestClient_Fetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := testClient(srv.URL)
	c.httpClient.Timeout = 50 * time.Millisecond

	body := c.Fetch(context.Background(), domain.CatalogSearchPath)
	assert.NotEmpty(t, errorMessage(t, body))
}

func TestClient_Fetch_ErrorMessageEscaped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	// Quotes in the path end up in the transport error text.
	body := testClient(base).Fetch(context.Background(), `/api/3/action/package_show?id="quoted"`)
	require.True(t, json.Valid(body))
}

func TestNewClient(t *testing.T) {
	c := NewClient("https://catalog.data.gov", 0, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "https://catalog.data.gov", c.baseURL)
	assert.Zero(t, c.httpClient.Timeout)
}
