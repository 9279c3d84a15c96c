// Package kms implements escrow key custody for the sharing service.
//
// SimpleBroker holds the long-lived escrow RSA keypair in memory and
// performs the unwrap-then-rewrap operation that releases a file key to an
// approved requester. The raw symmetric key exists only transiently inside
// Rewrap and is never persisted or logged.
//
// ShamirBroker wraps the same custody behind Shamir's Secret Sharing: the
// escrow private key is sealed at rest and the seal secret split into
// administrator shares, so no single operator can unseal it. The broker
// starts locked after a restart and unlocks once a threshold of shares has
// been submitted.
//
// Central escrow is a deliberate trust concession of this system: policy
// enforcement happens in a trusted coordinator rather than inside the
// ciphertext. Principal private keys are generated and held client-side and
// are never retrievable through any server API.
package kms
