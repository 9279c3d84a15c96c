package interfaces

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sudo-Harshk/SeSPHR/cryptoutils"
)

// PrincipalID identifies a registered principal (owner, requester, admin).
type PrincipalID string

// NewPrincipalID validates and creates a principal identifier.
func NewPrincipalID(id string) (PrincipalID, error) {
	if strings.TrimSpace(id) == "" {
		return "", errors.New("principal id must not be empty")
	}
	return PrincipalID(id), nil
}

// String returns the principal identifier as a string.
func (id PrincipalID) String() string {
	return string(id)
}

// FileID identifies an uploaded file record.
type FileID string

// NewFileID generates a fresh random file identifier.
func NewFileID() FileID {
	return FileID(uuid.Must(uuid.NewRandom()).String())
}

// ParseFileID validates a file identifier received from the outside.
func ParseFileID(id string) (FileID, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("invalid file id %q: %w", id, err)
	}
	return FileID(id), nil
}

// String returns the file identifier as a string.
func (id FileID) String() string {
	return string(id)
}

// AttributeSet is the typed attribute bag attached to a principal.
// Lookup and comparison are case-sensitive exact string matches.
type AttributeSet map[string]string

// Get returns the value for key and whether it is present.
func (a AttributeSet) Get(key string) (string, bool) {
	v, ok := a[key]
	return v, ok
}

// Has reports whether the set contains key with exactly the given value.
// A missing key never matches.
func (a AttributeSet) Has(key, value string) bool {
	v, ok := a[key]
	return ok && v == value
}

// Equal compares two attribute sets for exact equality.
func (a AttributeSet) Equal(other AttributeSet) bool {
	if len(a) != len(other) {
		return false
	}
	for k, v := range a {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the attribute set.
func (a AttributeSet) Clone() AttributeSet {
	if a == nil {
		return nil
	}
	out := make(AttributeSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// WrappedKey is a symmetric key encrypted under some principal's (or the
// escrow broker's) RSA public key. It is opaque to everything but the broker
// and the recipient.
type WrappedKey []byte

// IV is the AES-GCM nonce used for a file's ciphertext.
type IV []byte

// Re-exported crypto key types so collaborators can be expressed in terms of
// this package alone.
type PublicKeyPEM = cryptoutils.PublicKeyPEM
type PrivateKeyPEM = cryptoutils.PrivateKeyPEM

// AccessStatus is the terminal status of an audited action.
type AccessStatus string

const (
	// StatusGranted means the policy was satisfied and a rewrapped key was
	// produced for the requester.
	StatusGranted AccessStatus = "GRANTED"

	// StatusDeniedPolicy means the requester's attributes did not satisfy
	// the file's policy, or the rewrap failed closed.
	StatusDeniedPolicy AccessStatus = "DENIED_POLICY"

	// StatusDeniedRevoked means the file's policy carries the revocation
	// sentinel.
	StatusDeniedRevoked AccessStatus = "DENIED_REVOKED"

	// StatusInvalidRequest means the file or requester does not exist, or
	// the stored policy could not be parsed.
	StatusInvalidRequest AccessStatus = "INVALID_REQUEST"

	// StatusSuccess marks successful non-access actions (upload, revoke).
	StatusSuccess AccessStatus = "SUCCESS"
)

// String returns the status as a string.
func (s AccessStatus) String() string {
	return string(s)
}

// Action names the audited operation.
type Action string

const (
	ActionUpload Action = "UPLOAD"
	ActionAccess Action = "ACCESS"
	ActionRevoke Action = "REVOKE"
)

// String returns the action as a string.
func (a Action) String() string {
	return string(a)
}

// File is the metadata record for one uploaded document. The ciphertext
// itself lives in the blob store under Handle. A file record is immutable
// after upload except for policy replacement on revocation; it is never
// deleted.
type File struct {
	ID         FileID      `json:"id"`
	Owner      PrincipalID `json:"owner"`
	Handle     BlobHandle  `json:"handle"`
	WrappedKey WrappedKey  `json:"wrapped_key"`
	IV         IV          `json:"iv"`
	Policy     string      `json:"policy"`
	CreatedAt  int64       `json:"created_at"`
}

// AccessDecision is the outcome of one access request. Key material is only
// populated for StatusGranted; it is never persisted beyond the audit entry.
type AccessDecision struct {
	Status     AccessStatus
	WrappedKey WrappedKey
	IV         IV
	Handle     BlobHandle
	Reason     string
}

// AuditEntry is one link of the hash-chained audit ledger, immutable once
// written.
type AuditEntry struct {
	Timestamp int64  `json:"timestamp"`
	User      string `json:"user"`
	File      string `json:"file"`
	Action    string `json:"action"`
	Status    string `json:"status"`
	PrevHash  string `json:"prev_hash"`
	Hash      string `json:"hash"`
}
