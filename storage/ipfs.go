package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// IPFSBackend implements a blob store backend using the InterPlanetary File
// System (IPFS). Because IPFS addresses content by CID rather than raw
// SHA-256, the backend keeps a handle-to-CID mapping for blobs it has added.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	log         *slog.Logger
	locationURI string

	mu   sync.RWMutex
	cids map[interfaces.BlobHandle]string
}

// NewIPFSBackend creates a new IPFS blob store backend connected to the
// specified host and port.
func NewIPFSBackend(host, port, timeout string, log *slog.Logger) (*IPFSBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)
	uri := fmt.Sprintf("ipfs://%s/?timeout=%s", apiURL, timeout)

	return &IPFSBackend{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		log:         log,
		locationURI: uri,
		cids:        make(map[interfaces.BlobHandle]string),
	}, nil
}

// Get retrieves data from IPFS by its handle.
// Returns ErrBlobNotFound if the blob is unknown to this backend or
// ErrBackendUnavailable if the IPFS node is not accessible.
func (b *IPFSBackend) Get(ctx context.Context, handle interfaces.BlobHandle) ([]byte, error) {
	start := time.Now()

	b.mu.RLock()
	cid, ok := b.cids[handle]
	b.mu.RUnlock()
	if !ok {
		return nil, interfaces.ErrBlobNotFound
	}

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.Cat(cid)
	if err != nil {
		if strings.Contains(err.Error(), "no link named") {
			b.log.Debug("Blob not found in IPFS",
				slog.String("cid", cid),
				slog.String("handle", handle.String()),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrBlobNotFound
		}

		b.log.Error("Failed to fetch data from IPFS",
			slog.String("cid", cid),
			slog.String("handle", handle.String()),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		b.log.Error("Failed to read data from IPFS",
			slog.String("cid", cid),
			slog.String("handle", handle.String()),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}

	b.log.Debug("Fetched blob from IPFS",
		slog.String("cid", cid),
		slog.String("handle", handle.String()),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Put adds data to IPFS and returns its content-addressed handle.
// Returns ErrBackendUnavailable if the IPFS node is not accessible.
func (b *IPFSBackend) Put(ctx context.Context, data []byte) (interfaces.BlobHandle, error) {
	handle := interfaces.ComputeBlobHandle(data)

	if !b.shell.IsUp() {
		return handle, interfaces.ErrBackendUnavailable
	}

	cid, err := b.shell.Add(bytes.NewReader(data))
	if err != nil {
		return handle, fmt.Errorf("failed to add data to IPFS: %w", err)
	}

	b.mu.Lock()
	b.cids[handle] = cid
	b.mu.Unlock()

	b.log.Debug("Stored blob in IPFS",
		slog.String("ipfsCID", cid),
		slog.String("handle", handle.String()))

	return handle, nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this store.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this store.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}
