package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Catalog API paths, relative to the configured REST endpoint.
const (
	CatalogSearchPath  = "/api/3/action/package_search"
	catalogDetailsPath = "/api/3/action/package_show?id="
)

// CatalogDetailsPath builds the package_show path for id.
//
// The id is appended verbatim without query escaping, so a value such as
// "abc&rows=1" adds parameters to the upstream request.
// TODO: escape id once /rest/details clients stop relying on raw passthrough.
func CatalogDetailsPath(id string) string {
	return catalogDetailsPath + id
}

// EncodeRecords serializes records as a JSON array. A nil slice encodes as [].
func EncodeRecords[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return data, nil
}

// AdaptCatalogResponse extracts the top-level "result" value from a catalog
// envelope and returns its compact JSON encoding. The value may be any JSON
// type, including null.
func AdaptCatalogResponse(raw []byte) ([]byte, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedUpstreamPayload, err)
	}

	result, ok := envelope["result"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"result\" key", ErrMalformedUpstreamPayload)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedUpstreamPayload, err)
	}
	return buf.Bytes(), nil
}

// transportErrorEnvelope mirrors the catalog envelope so a failed fetch can
// flow through AdaptCatalogResponse like any other response.
type transportErrorEnvelope struct {
	Result struct {
		Error string `json:"error"`
	} `json:"result"`
}

// TransportErrorEnvelope renders err as {"result":{"error":"<message>"}}.
func TransportErrorEnvelope(err error) []byte {
	var env transportErrorEnvelope
	env.Result.Error = err.Error()
	data, _ := json.Marshal(env) //nolint:errchkjson // a struct of strings always encodes
	return data
}
