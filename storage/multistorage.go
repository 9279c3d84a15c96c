package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// MultiStore implements interfaces.BlobStore over multiple backends with
// fallback. Writes replicate to every available backend, reads return the
// first successful fetch.
type MultiStore struct {
	backends []interfaces.BlobStore
	log      *slog.Logger
}

// NewMultiStore creates a new multi-backend blob store with fallback.
func NewMultiStore(backends []interfaces.BlobStore, logger *slog.Logger) *MultiStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStore{
		backends: backends,
		log:      logger,
	}
}

// Get retrieves a blob from the first available backend that has it.
func (m *MultiStore) Get(ctx context.Context, handle interfaces.BlobHandle) ([]byte, error) {
	start := time.Now()
	var errs []error
	handleStr := handle.String()

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("handle", handleStr))
			continue
		}

		data, err := backend.Get(ctx, handle)
		if err == nil {
			m.log.Info("Successfully fetched blob",
				slog.String("backend_name", backend.Name()),
				slog.String("handle", handleStr),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("handle", handleStr),
			"err", err)
	}

	m.log.Error("All backends failed to fetch blob",
		slog.String("handle", handleStr),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return nil, fmt.Errorf("all backends failed to fetch %s: %v", handleStr, errs)
}

// Put saves a blob to all available backends.
func (m *MultiStore) Put(ctx context.Context, data []byte) (interfaces.BlobHandle, error) {
	start := time.Now()
	var result interfaces.BlobHandle
	var success bool
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			continue
		}

		handle, err := backend.Put(ctx, data)
		if err == nil {
			if !success {
				result = handle
				success = true
				m.log.Info("Successfully stored blob",
					slog.String("backend_name", backend.Name()),
					slog.String("handle", handle.String()),
					slog.Duration("duration", time.Since(start)))
			} else if !result.Equal(handle) {
				// Same data must produce the same hash.
				m.log.Warn("Inconsistent handles from backends",
					slog.String("backend_name", backend.Name()),
					slog.String("expected_handle", result.String()),
					slog.String("actual_handle", handle.String()))
			}
		} else {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Debug("Failed to store to backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
		}
	}

	if !success {
		m.log.Error("All backends failed to store blob",
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return result, fmt.Errorf("all backends failed to store blob: %v", errs)
	}

	return result, nil
}

// Available checks if any backend is available.
func (m *MultiStore) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this store.
func (m *MultiStore) Name() string {
	return "multi-storage"
}

// LocationURI returns a combined URI listing all backend locations.
func (m *MultiStore) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
