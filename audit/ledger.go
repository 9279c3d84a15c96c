package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// GenesisHash is the prev_hash of the first chain entry.
const GenesisHash = ""

// Ledger is an append-only hash-chained audit log. Append serializes on an
// internal mutex so prev_hash linkage is never computed against a stale
// tail; Entries returns an independent snapshot safe to verify concurrently
// with appends.
type Ledger struct {
	mu      sync.Mutex
	entries []interfaces.AuditEntry
	sink    appendSink
	now     func() int64
}

// appendSink persists entries as they are appended. The in-memory ledger
// uses a nil sink.
type appendSink interface {
	appendEntry(entry interfaces.AuditEntry) error
}

// NewLedger creates an in-memory ledger starting from the genesis hash.
func NewLedger() *Ledger {
	return &Ledger{now: func() int64 { return time.Now().Unix() }}
}

// Append computes the next chain entry for the given decision and stores it.
// Exactly one entry is produced per call; entries are immutable afterwards.
func (l *Ledger) Append(user interfaces.PrincipalID, file interfaces.FileID, action interfaces.Action, status interfaces.AccessStatus) (interfaces.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prevHash := GenesisHash
	if n := len(l.entries); n > 0 {
		prevHash = l.entries[n-1].Hash
	}

	entry := interfaces.AuditEntry{
		Timestamp: l.now(),
		User:      user.String(),
		File:      file.String(),
		Action:    action.String(),
		Status:    status.String(),
		PrevHash:  prevHash,
	}
	entry.Hash = EntryHash(entry)

	if l.sink != nil {
		if err := l.sink.appendEntry(entry); err != nil {
			return interfaces.AuditEntry{}, fmt.Errorf("failed to persist audit entry: %w", err)
		}
	}

	l.entries = append(l.entries, entry)
	return entry, nil
}

// Entries returns a snapshot of the chain in chronological order.
func (l *Ledger) Entries() []interfaces.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]interfaces.AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// CanonicalEntry serializes the hashed field set as a JSON object with keys
// in strict alphabetical order, ", " between members, ": " between key and
// value, the timestamp unquoted, and strings JSON-escaped. The stored hash
// field itself is not part of the canonical form.
func CanonicalEntry(entry interfaces.AuditEntry) []byte {
	var b bytes.Buffer
	b.WriteString(`{"action": `)
	b.Write(jsonString(entry.Action))
	b.WriteString(`, "file": `)
	b.Write(jsonString(entry.File))
	b.WriteString(`, "prev_hash": `)
	b.Write(jsonString(entry.PrevHash))
	b.WriteString(`, "status": `)
	b.Write(jsonString(entry.Status))
	b.WriteString(`, "timestamp": `)
	b.WriteString(strconv.FormatInt(entry.Timestamp, 10))
	b.WriteString(`, "user": `)
	b.Write(jsonString(entry.User))
	b.WriteString(`}`)
	return b.Bytes()
}

func jsonString(s string) []byte {
	out, err := json.Marshal(s)
	if err != nil {
		// json.Marshal of a string cannot fail
		panic(err)
	}
	return out
}

// EntryHash computes the SHA-256 hash of an entry's canonical form as
// lowercase hex.
func EntryHash(entry interfaces.AuditEntry) string {
	sum := sha256.Sum256(CanonicalEntry(entry))
	return hex.EncodeToString(sum[:])
}

// IntegrityError pinpoints the first broken link found by Verify.
type IntegrityError struct {
	Index  int
	Reason string
}

// Error describes the violation; it wraps interfaces.ErrLedgerIntegrity.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v: entry %d: %s", interfaces.ErrLedgerIntegrity, e.Index, e.Reason)
}

// Unwrap returns the sentinel integrity error.
func (e *IntegrityError) Unwrap() error {
	return interfaces.ErrLedgerIntegrity
}

// Verify recomputes every entry's hash from its canonical form and checks
// the prev_hash linkage over a chronological snapshot. The empty chain is
// valid. The first mismatch anywhere makes the whole chain tampered.
// Verify is read-only and safe to run concurrently with appends as long as
// the snapshot itself is stable.
func Verify(entries []interfaces.AuditEntry) error {
	prevHash := GenesisHash
	for i, entry := range entries {
		if entry.PrevHash != prevHash {
			return &IntegrityError{Index: i, Reason: "prev_hash does not match predecessor hash"}
		}
		if EntryHash(entry) != entry.Hash {
			return &IntegrityError{Index: i, Reason: "stored hash does not match recomputed hash"}
		}
		prevHash = entry.Hash
	}
	return nil
}
