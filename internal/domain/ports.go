package domain

import "context"

// RecordStore reads the inspection and place collections.
// Filters are case-sensitive exact matches; no match yields an empty slice.
type RecordStore interface {
	ListInspections(ctx context.Context) ([]InspectionRecord, error)
	ListInspectionsByGrade(ctx context.Context, grade string) ([]InspectionRecord, error)
	ListPlaces(ctx context.Context) ([]PlaceRecord, error)
	ListPlacesByState(ctx context.Context, state string) ([]PlaceRecord, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// CatalogFetcher issues GET requests against the catalog REST API.
type CatalogFetcher interface {
	// Fetch returns the raw response body for path. Transport failures are
	// returned as an error envelope rather than an error.
	Fetch(ctx context.Context, path string) []byte
}

// SOAPInvoker calls a parameterless SOAP method.
type SOAPInvoker interface {
	// Invoke returns the raw XML response body for method.
	Invoke(ctx context.Context, method string) ([]byte, error)
}
