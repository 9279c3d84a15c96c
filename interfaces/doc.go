// Package interfaces defines the core types and component contracts for the
// SeSPHR secure health-record sharing system. It provides the boundary
// between components without implementation details.
//
// The access-control core is expressed through five contracts:
//
//   - BlobStore: content-addressed storage for opaque ciphertext
//   - IdentityStore: principal attributes and public keys (read-only here)
//   - KeyBroker: escrow key custody and unwrap-then-rewrap
//   - AuditLedger: append-only hash-chained decision log
//   - FileRegistry: file metadata records
//
// The error taxonomy in errors.go maps onto audited terminal statuses:
// unknown files or principals surface as INVALID_REQUEST, policy misses as
// DENIED_POLICY, the revocation sentinel as DENIED_REVOKED, and crypto
// failures fail closed into a denial. ErrLedgerIntegrity is raised only by
// chain verification, never by append.
package interfaces
