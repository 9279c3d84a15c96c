package interfaces

import "context"

// IdentityStore resolves principals to their attribute bags and public keys.
// Attribute administration is an external concern; the core only reads.
type IdentityStore interface {
	// GetAttributes returns the principal's attribute set.
	// Returns ErrPrincipalNotFound for unknown principals.
	GetAttributes(ctx context.Context, id PrincipalID) (AttributeSet, error)

	// GetPublicKey returns the principal's registered RSA public key.
	// Returns ErrPrincipalNotFound for unknown principals.
	GetPublicKey(ctx context.Context, id PrincipalID) (PublicKeyPEM, error)
}

// KeyBroker custodies the long-lived escrow keypair. Every uploaded file's
// symmetric key is wrapped under the broker's public key at rest; the broker
// rewraps it for an approved requester without ever persisting the raw key.
type KeyBroker interface {
	// PublicKey returns the broker's public key for client-side wrap at
	// upload time.
	PublicKey() PublicKeyPEM

	// Rewrap unwraps an escrow-wrapped key with the broker's private key and
	// immediately wraps it for the recipient. The raw key exists only
	// transiently in memory for the duration of the call. Any unwrap or wrap
	// failure is a fail-closed ErrCrypto; stale data is never passed through.
	Rewrap(escrowWrapped WrappedKey, recipient PublicKeyPEM) (WrappedKey, error)
}

// AuditLedger is the append-only hash-chained decision log. Append is the
// single serialization point of the system: reading the current tail hash
// and writing the next entry is atomic with respect to concurrent appends.
type AuditLedger interface {
	// Append records one entry linked to the current chain tail and returns
	// it. Entries are immutable once appended.
	Append(user PrincipalID, file FileID, action Action, status AccessStatus) (AuditEntry, error)

	// Entries returns a snapshot of all entries in chronological order.
	Entries() []AuditEntry
}

// FileRegistry stores file metadata records. Records are immutable after
// registration except for policy replacement, and are never deleted.
type FileRegistry interface {
	// Register stores a new file record.
	Register(file File) error

	// Get returns a file record by id. Returns ErrFileNotFound if absent.
	Get(id FileID) (File, error)

	// ReplacePolicy swaps the stored policy string for an existing file.
	// Used only by revocation. Returns ErrFileNotFound if absent.
	ReplacePolicy(id FileID, policy string) error

	// List returns all file records ordered by creation time.
	List() []File
}
