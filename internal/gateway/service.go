// Package gateway runs the per-request chain: read a source, adapt its
// response, hand back JSON bytes.
package gateway

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/open-data-gateway/internal/domain"
	"github.com/couchcryptid/open-data-gateway/internal/observability"
)

// Source labels for adaptation metrics.
const (
	sourceInspections = "inspections"
	sourcePlaces      = "places"
	sourceCatalog     = "catalog"
	sourceSOAP        = "soap"
)

// Service answers every gateway endpoint.
type Service struct {
	store   domain.RecordStore
	catalog domain.CatalogFetcher
	soap    domain.SOAPInvoker
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Service over the given sources.
func New(store domain.RecordStore, catalog domain.CatalogFetcher, soap domain.SOAPInvoker, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		soap:    soap,
		logger:  logger.With("component", "gateway"),
		metrics: metrics,
	}
}

// CheckReadiness reports whether the record store answers.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ListInspections returns every inspection as a JSON array.
func (s *Service) ListInspections(ctx context.Context) ([]byte, error) {
	records, err := s.store.ListInspections(ctx)
	return encode(s, sourceInspections, records, err)
}

// SearchInspections returns inspections whose most recent grade equals grade.
func (s *Service) SearchInspections(ctx context.Context, grade string) ([]byte, error) {
	records, err := s.store.ListInspectionsByGrade(ctx, grade)
	return encode(s, sourceInspections, records, err)
}

// ListPlaces returns every place as a JSON array.
func (s *Service) ListPlaces(ctx context.Context) ([]byte, error) {
	records, err := s.store.ListPlaces(ctx)
	return encode(s, sourcePlaces, records, err)
}

// SearchPlaces returns places whose state equals state.
func (s *Service) SearchPlaces(ctx context.Context, state string) ([]byte, error) {
	records, err := s.store.ListPlacesByState(ctx, state)
	return encode(s, sourcePlaces, records, err)
}

// CatalogSearch returns the "result" of the catalog package search.
func (s *Service) CatalogSearch(ctx context.Context) ([]byte, error) {
	return s.catalogResult(ctx, domain.CatalogSearchPath)
}

// CatalogDetails returns the "result" of the catalog package lookup for id.
func (s *Service) CatalogDetails(ctx context.Context, id string) ([]byte, error) {
	return s.catalogResult(ctx, domain.CatalogDetailsPath(id))
}

// LanguageList calls the SOAP language list and returns its structural dump.
// Unparseable XML yields an error node; a transport failure is returned.
func (s *Service) LanguageList(ctx context.Context) ([]byte, error) {
	raw, err := s.soap.Invoke(ctx, domain.LanguageListMethod)
	if err != nil {
		s.logger.Error("language list request failed", "error", err)
		return nil, err
	}

	out, err := domain.AdaptLanguageListResponse(raw)
	if err != nil {
		s.metrics.AdaptErrors.WithLabelValues(sourceSOAP).Inc()
		s.logger.Error("encode language list", "error", err)
		return nil, err
	}
	if isErrorNode(out) {
		s.metrics.AdaptErrors.WithLabelValues(sourceSOAP).Inc()
		s.logger.Warn("language list response is not valid xml", "bytes", len(raw))
	}
	return out, nil
}

func (s *Service) catalogResult(ctx context.Context, path string) ([]byte, error) {
	raw := s.catalog.Fetch(ctx, path)

	out, err := domain.AdaptCatalogResponse(raw)
	if err != nil {
		s.metrics.AdaptErrors.WithLabelValues(sourceCatalog).Inc()
		s.logger.Error("adapt catalog response", "path", path, "error", err)
		return nil, err
	}
	return out, nil
}

func encode[T any](s *Service, source string, records []T, err error) ([]byte, error) {
	if err != nil {
		s.logger.Error("store query failed", "source", source, "error", err)
		return nil, err
	}

	out, err := domain.EncodeRecords(records)
	if err != nil {
		s.metrics.AdaptErrors.WithLabelValues(source).Inc()
		s.logger.Error("encode records", "source", source, "error", err)
		return nil, err
	}
	return out, nil
}

// isErrorNode reports whether out is the single-object error dump rather than
// the usual array.
func isErrorNode(out []byte) bool {
	return len(out) > 0 && out[0] == '{'
}
