// Package httpserver exposes the coordinator over HTTP.
//
// The server wires a chi router with request logging, the upload, access,
// revoke, listing, audit, and broker-key endpoints, plus the operational
// endpoints /livez, /readyz, /drain, and /undrain. A Prometheus metrics
// listener runs on a separate address and doubles as the coordinator's
// decision observer.
//
// The HTTP layer stays thin: it decodes and validates wire formats, stores
// and fetches ciphertext blobs, and maps coordinator outcomes to status
// codes. All policy and key handling decisions live in the access package.
package httpserver
