package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// FileStore implements a blob store backend on the local file system.
// Blobs are stored under their hex handle in a single directory.
type FileStore struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileStore creates a file-system blob store rooted at baseDir,
// creating the directory if needed.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, "blobs"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	return &FileStore{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Put saves data to the file system and returns its content-addressed
// handle.
func (b *FileStore) Put(ctx context.Context, data []byte) (interfaces.BlobHandle, error) {
	handle := interfaces.ComputeBlobHandle(data)
	path := b.blobPath(handle)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return handle, fmt.Errorf("failed to write blob: %w", err)
	}

	b.log.Debug("Stored blob in file store",
		slog.String("path", path),
		slog.Int("size", len(data)))

	return handle, nil
}

// Get retrieves data by handle. Returns ErrBlobNotFound if the file does
// not exist.
func (b *FileStore) Get(ctx context.Context, handle interfaces.BlobHandle) ([]byte, error) {
	path := b.blobPath(handle)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, interfaces.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	b.log.Debug("Fetched blob from file store",
		slog.String("path", path),
		slog.Int("size", len(data)))

	return data, nil
}

// Available checks if the base directory exists.
func (b *FileStore) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (b *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this store.
func (b *FileStore) LocationURI() string {
	return b.locationURI
}

func (b *FileStore) blobPath(handle interfaces.BlobHandle) string {
	return filepath.Join(b.baseDir, "blobs", handle.String())
}
