package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// fileSink persists entries as JSON lines in an append-only file. Writes
// happen under the ledger mutex, so the sink itself needs no locking.
type fileSink struct {
	f   *os.File
	log *slog.Logger
}

func (s *fileSink) appendEntry(entry interfaces.AuditEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}
	line = append(line, '\n')

	if _, err := s.f.Write(line); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync audit log: %w", err)
	}

	s.log.Debug("Appended audit entry",
		slog.String("action", entry.Action),
		slog.String("status", entry.Status),
		slog.String("hash", entry.Hash))
	return nil
}

// OpenFileLedger opens (or creates) a JSON-lines audit log and returns a
// ledger whose tail continues the persisted chain. The loaded chain is
// verified on open; a tampered file refuses to load.
func OpenFileLedger(path string, log *slog.Logger) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	entries, err := readEntries(path)
	if err != nil {
		return nil, err
	}

	if err := Verify(entries); err != nil {
		return nil, fmt.Errorf("refusing to open audit log: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	log.Info("Opened audit ledger",
		slog.String("path", path),
		slog.Int("entries", len(entries)))

	ledger := NewLedger()
	ledger.entries = entries
	ledger.sink = &fileSink{f: f, log: log}
	return ledger, nil
}

// ReadFileLedger loads the entries of a JSON-lines audit log without
// opening it for appending. Used by external verifiers.
func ReadFileLedger(path string) ([]interfaces.AuditEntry, error) {
	return readEntries(path)
}

func readEntries(path string) ([]interfaces.AuditEntry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	defer f.Close()

	var entries []interfaces.AuditEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry interfaces.AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("malformed audit log line %d: %w", len(entries)+1, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan audit log: %w", err)
	}

	return entries, nil
}

// WithClock overrides the ledger's timestamp source. Test helper.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = func() int64 { return now().Unix() }
	return l
}
