package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/open-data-gateway/internal/adapter/memory"
	"github.com/couchcryptid/open-data-gateway/internal/domain"
	"github.com/couchcryptid/open-data-gateway/internal/gateway"
	"github.com/couchcryptid/open-data-gateway/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockCatalog struct {
	bodies map[string][]byte
	paths  []string
}

func (m *mockCatalog) Fetch(_ context.Context, path string) []byte {
	m.paths = append(m.paths, path)
	if b, ok := m.bodies[path]; ok {
		return b
	}
	return domain.TransportErrorEnvelope(errors.New("catalog API error: status 404"))
}

type mockSOAP struct {
	body   []byte
	err    error
	method string
}

func (m *mockSOAP) Invoke(_ context.Context, method string) ([]byte, error) {
	m.method = method
	return m.body, m.err
}

type failingStore struct{ err error }

func (f failingStore) ListInspections(context.Context) ([]domain.InspectionRecord, error) {
	return nil, f.err
}

func (f failingStore) ListInspectionsByGrade(context.Context, string) ([]domain.InspectionRecord, error) {
	return nil, f.err
}
func (f failingStore) ListPlaces(context.Context) ([]domain.PlaceRecord, error) { return nil, f.err }
func (f failingStore) ListPlacesByState(context.Context, string) ([]domain.PlaceRecord, error) {
	return nil, f.err
}
func (f failingStore) Ping(context.Context) error { return f.err }

// --- fixtures ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureStore() *memory.Store {
	inspections := make([]domain.InspectionRecord, 0, 10)
	for i := int64(1); i <= 10; i++ {
		grade := "A"
		if i == 4 {
			grade = "A1"
		}
		inspections = append(inspections, domain.InspectionRecord{PermitNumber: i, GradeRecent: grade, PremiseName: "FACILITY", ScoreRecent: 90})
	}

	places := make([]domain.PlaceRecord, 0, 10)
	for i := int64(1); i <= 10; i++ {
		state := "OH"
		if i == 7 {
			state = "NY1"
		}
		places = append(places, domain.PlaceRecord{ID: i, NS: "N", EW: "W", City: "City", State: state})
	}
	return memory.New(inspections, places)
}

func newService(store domain.RecordStore, catalog *mockCatalog, soap *mockSOAP) (*gateway.Service, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return gateway.New(store, catalog, soap, discardLogger(), metrics), metrics
}

// --- tests ---

func TestService_Inspections(t *testing.T) {
	svc, _ := newService(fixtureStore(), &mockCatalog{}, &mockSOAP{})

	all, err := svc.ListInspections(context.Background())
	require.NoError(t, err)
	var records []domain.InspectionRecord
	require.NoError(t, json.Unmarshal(all, &records))
	assert.Len(t, records, 10)

	found, err := svc.SearchInspections(context.Background(), "A1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(found, &records))
	require.Len(t, records, 1)
	assert.Equal(t, int64(4), records[0].PermitNumber)

	none, err := svc.SearchInspections(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(none))
}

func TestService_Places(t *testing.T) {
	svc, _ := newService(fixtureStore(), &mockCatalog{}, &mockSOAP{})

	all, err := svc.ListPlaces(context.Background())
	require.NoError(t, err)
	var places []domain.PlaceRecord
	require.NoError(t, json.Unmarshal(all, &places))
	assert.Len(t, places, 10)

	found, err := svc.SearchPlaces(context.Background(), "NY1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(found, &places))
	require.Len(t, places, 1)
	assert.Equal(t, int64(7), places[0].ID)
}

func TestService_StoreFailure(t *testing.T) {
	storeErr := errors.Join(domain.ErrStoreUnavailable, errors.New("connection refused"))
	svc, _ := newService(failingStore{err: storeErr}, &mockCatalog{}, &mockSOAP{})

	_, err := svc.ListInspections(context.Background())
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	_, err = svc.SearchPlaces(context.Background(), "NY")
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	assert.True(t, errors.Is(svc.CheckReadiness(context.Background()), domain.ErrStoreUnavailable))
}

func TestService_CatalogSearch(t *testing.T) {
	catalog := &mockCatalog{bodies: map[string][]byte{
		domain.CatalogSearchPath: []byte(`{"help":"...","success":true,"result":{"count":2,"results":[{"id":"a"},{"id":"b"}]}}`),
	}}
	svc, _ := newService(fixtureStore(), catalog, &mockSOAP{})

	out, err := svc.CatalogSearch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"count":2,"results":[{"id":"a"},{"id":"b"}]}`, string(out))
	assert.Equal(t, []string{domain.CatalogSearchPath}, catalog.paths)
}

func TestService_CatalogDetails_TransportErrorPassesThrough(t *testing.T) {
	catalog := &mockCatalog{}
	svc, _ := newService(fixtureStore(), catalog, &mockSOAP{})

	out, err := svc.CatalogDetails(context.Background(), "missing-id")
	require.NoError(t, err)

	var result map[string]string
	require.NoError(t, json.Unmarshal(out, &result))
	assert.NotEmpty(t, result["error"])
	assert.Equal(t, []string{"/api/3/action/package_show?id=missing-id"}, catalog.paths)
}

func TestService_CatalogMalformedPayload(t *testing.T) {
	catalog := &mockCatalog{bodies: map[string][]byte{
		domain.CatalogSearchPath: []byte(`{"success":true}`),
	}}
	svc, metrics := newService(fixtureStore(), catalog, &mockSOAP{})

	_, err := svc.CatalogSearch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedUpstreamPayload))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.AdaptErrors.WithLabelValues("catalog")), 0)
}

func TestService_LanguageList(t *testing.T) {
	soap := &mockSOAP{body: []byte(`<Envelope><Body><GetLanguageListResponse><GetLanguageListResult><string>English</string></GetLanguageListResult></GetLanguageListResponse></Body></Envelope>`)}
	svc, _ := newService(fixtureStore(), &mockCatalog{}, soap)

	out, err := svc.LanguageList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.LanguageListMethod, soap.method)

	var nodes []domain.XMLNode
	require.NoError(t, json.Unmarshal(out, &nodes))
	english := "English"
	want := []domain.XMLNode{{
		Tag:      domain.LanguageListResultTag,
		Children: []domain.XMLNode{{Tag: "string", Text: &english}},
	}}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestService_LanguageList_MalformedXMLContained(t *testing.T) {
	soap := &mockSOAP{body: []byte(`<html><body>Service Unavailable`)}
	svc, metrics := newService(fixtureStore(), &mockCatalog{}, soap)

	out, err := svc.LanguageList(context.Background())
	require.NoError(t, err)

	var node domain.XMLNode
	require.NoError(t, json.Unmarshal(out, &node))
	assert.Equal(t, "error", node.Tag)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.AdaptErrors.WithLabelValues("soap")), 0)
}

func TestService_LanguageList_TransportFailure(t *testing.T) {
	soap := &mockSOAP{err: errors.Join(domain.ErrUpstreamTransport, errors.New("no such host"))}
	svc, _ := newService(fixtureStore(), &mockCatalog{}, soap)

	_, err := svc.LanguageList(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamTransport))
}
