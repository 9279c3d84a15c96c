package storage

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestMemoryStoreRoundtrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("ciphertext blob")
	handle, err := store.Put(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ComputeBlobHandle(data), handle)

	got, err := store.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Returned slice must be a copy.
	got[0] ^= 0xff
	again, err := store.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), interfaces.ComputeBlobHandle([]byte("missing")))
	assert.ErrorIs(t, err, interfaces.ErrBlobNotFound)
}

func TestFileStoreRoundtrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	data := []byte("encrypted health record")
	handle, err := store.Put(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ComputeBlobHandle(data), handle)

	got, err := store.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	assert.True(t, store.Available(ctx))
}

func TestFileStoreNotFound(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), interfaces.ComputeBlobHandle([]byte("nope")))
	assert.ErrorIs(t, err, interfaces.ErrBlobNotFound)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	data := []byte("durable blob")
	handle, err := first.Put(ctx, data)
	require.NoError(t, err)

	second, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	got, err := second.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMultiStoreReplicatesAndFallsBack(t *testing.T) {
	ctx := context.Background()

	a := NewMemoryStore()
	b := NewMemoryStore()
	multi := NewMultiStore([]interfaces.BlobStore{a, b}, testLogger())

	data := []byte("replicated blob")
	handle, err := multi.Put(ctx, data)
	require.NoError(t, err)

	// Both backends received the blob.
	gotA, err := a.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, data, gotA)

	gotB, err := b.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, data, gotB)

	got, err := multi.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMultiStoreGetSkipsBackendsMissingBlob(t *testing.T) {
	ctx := context.Background()

	empty := NewMemoryStore()
	holder := NewMemoryStore()

	data := []byte("only in second backend")
	handle, err := holder.Put(ctx, data)
	require.NoError(t, err)

	multi := NewMultiStore([]interfaces.BlobStore{empty, holder}, testLogger())

	got, err := multi.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMultiStoreAllMissing(t *testing.T) {
	multi := NewMultiStore([]interfaces.BlobStore{NewMemoryStore()}, testLogger())

	_, err := multi.Get(context.Background(), interfaces.ComputeBlobHandle([]byte("absent")))
	assert.Error(t, err)
}

func TestFactoryCreatesBackendsFromURIs(t *testing.T) {
	factory := NewFactory(testLogger())

	testCases := []struct {
		name     string
		uri      string
		wantName string
	}{
		{"memory", "memory://", "memory"},
		{"file", "file://" + t.TempDir(), ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			loc, err := interfaces.NewBlobStoreLocation(tc.uri)
			require.NoError(t, err)

			store, err := factory.BlobStoreFor(loc)
			require.NoError(t, err)
			require.NotNil(t, store)
			if tc.wantName != "" {
				assert.Equal(t, tc.wantName, store.Name())
			}
		})
	}
}

func TestFactoryRejectsUnsupportedScheme(t *testing.T) {
	_, err := interfaces.NewBlobStoreLocation("gopher://example.com")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestFactoryCreateMultiStore(t *testing.T) {
	factory := NewFactory(testLogger())

	locs := make([]interfaces.BlobStoreLocation, 0, 2)
	for _, uri := range []string{"memory://", "file://" + t.TempDir()} {
		loc, err := interfaces.NewBlobStoreLocation(uri)
		require.NoError(t, err)
		locs = append(locs, loc)
	}

	multi, err := factory.CreateMultiStore(locs)
	require.NoError(t, err)

	ctx := context.Background()
	data := []byte("multi factory blob")
	handle, err := multi.Put(ctx, data)
	require.NoError(t, err)

	got, err := multi.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
