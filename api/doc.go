// Package api defines the wire types of the coordinator's HTTP API and a
// client for it. All binary fields (ciphertext, IVs, wrapped keys) travel
// base64-encoded; blob handles travel as hex.
//
// The API never transports plaintext documents, raw symmetric keys, or any
// principal's private key. Clients encrypt before Upload and decrypt after
// RequestAccess using keys they hold locally.
package api
