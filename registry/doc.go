// Package registry stores file metadata records: owner, ciphertext handle,
// escrow-wrapped key, IV, policy, and creation time.
//
// Records are created exactly once at upload, mutated only by policy
// replacement (revocation), and never deleted. The registry is in-memory
// with an optional JSON snapshot persisted atomically after each mutation.
package registry
