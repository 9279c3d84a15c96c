package audit

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFileLedgerPersistsAndResumes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	ledger, err := OpenFileLedger(path, testLogger())
	require.NoError(t, err)

	first, err := ledger.Append("alice", "f-1", interfaces.ActionUpload, interfaces.StatusSuccess)
	require.NoError(t, err)
	_, err = ledger.Append("bob", "f-1", interfaces.ActionAccess, interfaces.StatusGranted)
	require.NoError(t, err)

	// Reopen and confirm the chain continues from the persisted tail.
	resumed, err := OpenFileLedger(path, testLogger())
	require.NoError(t, err)
	require.Len(t, resumed.Entries(), 2)

	third, err := resumed.Append("carol", "f-1", interfaces.ActionAccess, interfaces.StatusDeniedPolicy)
	require.NoError(t, err)
	assert.Equal(t, resumed.Entries()[1].Hash, third.PrevHash)
	assert.Equal(t, GenesisHash, first.PrevHash)

	require.NoError(t, Verify(resumed.Entries()))

	entries, err := ReadFileLedger(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.NoError(t, Verify(entries))
}

func TestOpenFileLedgerRefusesTamperedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	ledger, err := OpenFileLedger(path, testLogger())
	require.NoError(t, err)
	_, err = ledger.Append("alice", "f-1", interfaces.ActionAccess, interfaces.StatusGranted)
	require.NoError(t, err)

	// An external process flips the persisted status field.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(raw), "GRANTED", "DENIED_POLICY", 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0644))

	_, err = OpenFileLedger(path, testLogger())
	require.ErrorIs(t, err, interfaces.ErrLedgerIntegrity)
}

func TestOpenFileLedgerMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh", "audit.log")

	ledger, err := OpenFileLedger(path, testLogger())
	require.NoError(t, err)
	assert.Empty(t, ledger.Entries())
}

func TestOpenFileLedgerRejectsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0644))

	_, err := OpenFileLedger(path, testLogger())
	require.Error(t, err)
}
