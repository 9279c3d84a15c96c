package api

// UploadRequest registers one client-side encrypted document. Ciphertext,
// IV, and the broker-wrapped key are produced entirely on the client; the
// server never sees plaintext or a raw symmetric key.
type UploadRequest struct {
	// OwnerID is the uploading principal.
	OwnerID string `json:"owner_id"`

	// Policy is the attribute policy string, e.g. "Role:Doctor AND Dept:ICU".
	Policy string `json:"policy"`

	// Ciphertext is the base64 AES-GCM ciphertext (tag included).
	Ciphertext string `json:"ciphertext"`

	// IV is the base64 12-byte AES-GCM nonce.
	IV string `json:"iv"`

	// WrappedKey is the base64 symmetric key wrapped under the broker's
	// public key.
	WrappedKey string `json:"wrapped_key"`
}

// UploadResponse returns the server-assigned identifiers for a stored file.
type UploadResponse struct {
	FileID string `json:"file_id"`

	// Handle is the hex content address of the stored ciphertext.
	Handle string `json:"handle"`

	Policy string `json:"policy"`
}

// AccessRequest asks for one access decision on a file.
type AccessRequest struct {
	RequesterID string `json:"requester_id"`
}

// AccessResponse is the audited outcome. Key material and ciphertext are
// only present when Status is GRANTED.
type AccessResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`

	// WrappedKey is the base64 symmetric key rewrapped for the requester.
	WrappedKey string `json:"wrapped_key,omitempty"`

	// IV is the base64 nonce stored at upload time.
	IV string `json:"iv,omitempty"`

	// Handle is the hex content address of the ciphertext.
	Handle string `json:"handle,omitempty"`

	// Ciphertext is the base64 ciphertext fetched from the blob store.
	Ciphertext string `json:"ciphertext,omitempty"`
}

// RevokeRequest revokes all future access to a file. Only the owner may
// revoke.
type RevokeRequest struct {
	OwnerID string `json:"owner_id"`
}

// RevokeResponse acknowledges a revocation.
type RevokeResponse struct {
	FileID string `json:"file_id"`
	Status string `json:"status"`
}

// FileRecord is one registry listing entry. Key material is not exposed.
type FileRecord struct {
	FileID    string `json:"file_id"`
	OwnerID   string `json:"owner_id"`
	Handle    string `json:"handle"`
	Policy    string `json:"policy"`
	CreatedAt int64  `json:"created_at"`
}

// ListFilesResponse lists registered files ordered by creation time.
type ListFilesResponse struct {
	Files []FileRecord `json:"files"`
}

// AuditEntryRecord is one hash-chained ledger entry.
type AuditEntryRecord struct {
	Timestamp int64  `json:"timestamp"`
	User      string `json:"user"`
	File      string `json:"file"`
	Action    string `json:"action"`
	Status    string `json:"status"`
	PrevHash  string `json:"prev_hash"`
	Hash      string `json:"hash"`
}

// AuditResponse returns the full ledger in chain order.
type AuditResponse struct {
	Entries []AuditEntryRecord `json:"entries"`
}

// AuditVerifyResponse reports the outcome of a chain verification pass.
type AuditVerifyResponse struct {
	Valid   bool   `json:"valid"`
	Entries int    `json:"entries"`
	Error   string `json:"error,omitempty"`
}

// BrokerPubkeyResponse carries the escrow broker's public key for
// client-side key wrapping at upload time.
type BrokerPubkeyResponse struct {
	PublicKey string `json:"public_key"`
}
