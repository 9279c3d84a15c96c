package storage

import (
	"context"
	"sync"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// MemoryStore is an in-process blob store for tests and single-node
// development deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[interfaces.BlobHandle][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[interfaces.BlobHandle][]byte)}
}

// Put saves data under its content-addressed handle.
func (m *MemoryStore) Put(ctx context.Context, data []byte) (interfaces.BlobHandle, error) {
	handle := interfaces.ComputeBlobHandle(data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[handle] = append([]byte(nil), data...)
	return handle, nil
}

// Get retrieves data by handle.
func (m *MemoryStore) Get(ctx context.Context, handle interfaces.BlobHandle) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[handle]
	if !ok {
		return nil, interfaces.ErrBlobNotFound
	}
	return append([]byte(nil), data...), nil
}

// Available always reports true for the in-memory store.
func (m *MemoryStore) Available(ctx context.Context) bool {
	return true
}

// Name returns a unique identifier for this store.
func (m *MemoryStore) Name() string {
	return "memory"
}

// LocationURI returns the URI that identifies this store.
func (m *MemoryStore) LocationURI() string {
	return "memory://"
}
