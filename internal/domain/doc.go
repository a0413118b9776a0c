// Package domain models the four read-only data sources exposed by the gateway
// and the adaptation rules that turn each upstream shape into JSON.
//
// # Data Sources
//
// Food inspections and places are relational tables populated by an external
// ingestion process. The gateway only reads them, through [RecordStore].
//
// Catalog search talks to a CKAN-style REST API (catalog.data.gov by default).
// Every CKAN action answers with an envelope:
//
//	{"help": "...", "success": true, "result": <payload>}
//
// Only the "result" value is forwarded to clients. See [AdaptCatalogResponse].
//
// The language list comes from a SOAP 1.1 service. The response body is an
// XML envelope whose payload element is named after the method with a
// "Result" suffix:
//
//	<soap:Envelope>
//	  <soap:Body>
//	    <GetLanguageListResponse xmlns="...">
//	      <GetLanguageListResult>
//	        <string>English</string>
//	      </GetLanguageListResult>
//	    </GetLanguageListResponse>
//	  </soap:Body>
//	</soap:Envelope>
//
// # JSON Conventions
//
// Relational records keep their declared field names as JSON keys. Where a
// column alias exists (permit_number, facility_type, ...) the alias is the key.
// Nullable columns are pointers and render as null.
//
// XML is not unwrapped into values. Matched elements are dumped structurally
// as [XMLNode] trees (tag, namespace, attributes, children, text), so the
// output shape follows whatever the upstream document contains.
//
// # Failure Containment
//
// The sources deliberately differ in how failures surface:
//
//	REST transport failure   -> {"result":{"error":"<message>"}}, request succeeds
//	REST malformed payload   -> ErrMalformedUpstreamPayload, request fails
//	SOAP malformed XML       -> structural dump of <error>message</error>, request succeeds
//	SOAP transport failure   -> ErrUpstreamTransport, request fails
//	record store unreachable -> ErrStoreUnavailable, request fails
package domain
