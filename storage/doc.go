// Package storage provides content-addressed blob store backends for
// ciphertext documents.
//
// Every backend implements interfaces.BlobStore: blobs are identified by the
// SHA-256 hash of their contents, so the same ciphertext stored through any
// backend yields the same handle. Backends never see plaintext; documents
// are encrypted client-side before upload.
//
// Available backends:
//   - MemoryStore: in-process map, for tests and ephemeral deployments
//   - FileStore: local filesystem directory
//   - S3Backend: Amazon S3 or compatible object storage
//   - IPFSBackend: IPFS node via its HTTP API
//   - VaultBackend: HashiCorp Vault KV v2 secrets engine
//   - MultiStore: replicates writes across several backends with
//     first-hit reads
//
// The Factory constructs backends from location URIs, for example
// file:///var/lib/sesphr/blobs or s3://bucket/prefix?region=us-east-1, and
// can aggregate several URIs into a MultiStore.
package storage
