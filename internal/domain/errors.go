package domain

import "errors"

var (
	// ErrStoreUnavailable means the record store could not be reached or
	// failed to answer a query.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrUpstreamTransport means an outbound call to an upstream service
	// failed before a response body was obtained.
	ErrUpstreamTransport = errors.New("upstream transport failure")

	// ErrMalformedUpstreamPayload means a catalog response was not valid JSON
	// or carried no top-level "result" key.
	ErrMalformedUpstreamPayload = errors.New("malformed upstream payload")

	// ErrMalformedUpstreamXML means a SOAP response could not be parsed.
	// AdaptLanguageListResponse turns it into an error node.
	ErrMalformedUpstreamXML = errors.New("malformed upstream xml")
)
