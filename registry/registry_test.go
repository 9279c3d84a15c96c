package registry

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

func testFile(id interfaces.FileID, createdAt int64) interfaces.File {
	return interfaces.File{
		ID:         id,
		Owner:      "patient1",
		Handle:     interfaces.ComputeBlobHandle([]byte(id)),
		WrappedKey: interfaces.WrappedKey("wrapped"),
		IV:         interfaces.IV("0123456789ab"),
		Policy:     "Role:Doctor",
		CreatedAt:  createdAt,
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := NewFileRegistry()
	f := testFile("f-1", 100)
	require.NoError(t, r.Register(f))

	got, err := r.Get("f-1")
	require.NoError(t, err)
	assert.Equal(t, f, got)

	_, err = r.Get("f-2")
	require.ErrorIs(t, err, interfaces.ErrFileNotFound)
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewFileRegistry()
	require.NoError(t, r.Register(testFile("f-1", 100)))
	require.Error(t, r.Register(testFile("f-1", 200)))
}

func TestReplacePolicyKeepsOtherFields(t *testing.T) {
	r := NewFileRegistry()
	f := testFile("f-1", 100)
	require.NoError(t, r.Register(f))

	require.NoError(t, r.ReplacePolicy("f-1", "Role:__REVOKED__"))

	got, err := r.Get("f-1")
	require.NoError(t, err)
	assert.Equal(t, "Role:__REVOKED__", got.Policy)
	assert.Equal(t, f.WrappedKey, got.WrappedKey)
	assert.Equal(t, f.Handle, got.Handle)
	assert.Equal(t, f.Owner, got.Owner)

	require.ErrorIs(t, r.ReplacePolicy("missing", "x"), interfaces.ErrFileNotFound)
}

func TestListOrdersByCreation(t *testing.T) {
	r := NewFileRegistry()
	require.NoError(t, r.Register(testFile("f-b", 200)))
	require.NoError(t, r.Register(testFile("f-a", 100)))
	require.NoError(t, r.Register(testFile("f-c", 100)))

	files := r.List()
	require.Len(t, files, 3)
	assert.Equal(t, interfaces.FileID("f-a"), files[0].ID)
	assert.Equal(t, interfaces.FileID("f-c"), files[1].ID)
	assert.Equal(t, interfaces.FileID("f-b"), files[2].ID)
}

func TestFileRegistrySnapshotRoundtrip(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	path := filepath.Join(t.TempDir(), "registry.json")

	r, err := OpenFileRegistry(path, log)
	require.NoError(t, err)
	require.NoError(t, r.Register(testFile("f-1", 100)))
	require.NoError(t, r.ReplacePolicy("f-1", "Role:__REVOKED__"))

	reloaded, err := OpenFileRegistry(path, log)
	require.NoError(t, err)

	got, err := reloaded.Get("f-1")
	require.NoError(t, err)
	assert.Equal(t, "Role:__REVOKED__", got.Policy)
	assert.Equal(t, interfaces.PrincipalID("patient1"), got.Owner)
}
