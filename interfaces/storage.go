package interfaces

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// BlobHandle is a 32-byte SHA-256 hash uniquely identifying stored ciphertext.
// The blob store is content-addressed; the core treats blob contents as
// opaque ciphertext plus authentication tag.
type BlobHandle [32]byte

// NewBlobHandleFromBytes creates a handle from a raw 32-byte slice.
func NewBlobHandleFromBytes(source []byte) (BlobHandle, error) {
	if len(source) != 32 {
		return BlobHandle{}, errors.New("invalid blob handle: must be 32 bytes")
	}

	var h BlobHandle
	copy(h[:], source)
	return h, nil
}

// NewBlobHandleFromHex creates a handle from its hex representation.
func NewBlobHandleFromHex(source string) (BlobHandle, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return BlobHandle{}, errors.New("invalid blob handle length: hex string must be 64 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return BlobHandle{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewBlobHandleFromBytes(raw)
}

// ComputeBlobHandle calculates the handle for a blob's contents.
func ComputeBlobHandle(data []byte) BlobHandle {
	return BlobHandle(sha256.Sum256(data))
}

// String returns the hex representation.
func (h BlobHandle) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the raw 32-byte hash.
func (h BlobHandle) Bytes() []byte {
	return h[:]
}

// Equal compares two blob handles.
func (h BlobHandle) Equal(other BlobHandle) bool {
	return bytes.Equal(h[:], other[:])
}

var (
	// ErrBlobNotFound is returned when a handle does not resolve to stored
	// content in the blob store.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrBackendUnavailable is returned when a blob store backend is not
	// accessible, due to network issues, authentication failures, or outages.
	ErrBackendUnavailable = errors.New("blob store backend unavailable")

	// ErrInvalidLocationURI is returned when a blob store location URI is
	// malformed or its scheme is unsupported.
	ErrInvalidLocationURI = errors.New("invalid blob store location URI")
)

// BlobStore provides content-addressed storage for ciphertext blobs.
// Implementations treat contents as opaque bytes.
type BlobStore interface {
	// Put saves data and returns its content-addressed handle.
	Put(ctx context.Context, data []byte) (BlobHandle, error)

	// Get retrieves data by handle. Returns ErrBlobNotFound if absent.
	Get(ctx context.Context, handle BlobHandle) ([]byte, error)

	// Available checks if the backend is accessible.
	Available(ctx context.Context) bool

	// Name returns an identifier for logging.
	Name() string

	// LocationURI returns the URI identifying this backend.
	LocationURI() string
}

// BlobStoreFactory creates blob store backends from location URIs.
type BlobStoreFactory interface {
	// BlobStoreFor creates a backend from a URI.
	// Supports memory://, file://, s3://, ipfs://, vault://
	BlobStoreFor(location BlobStoreLocation) (BlobStore, error)

	// CreateMultiStore creates an aggregated store that replicates writes
	// across all backends and reads from the first that has the content.
	CreateMultiStore(locations []BlobStoreLocation) (BlobStore, error)
}

// BlobStoreLocation represents a parsed blob store backend URI.
type BlobStoreLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// NewBlobStoreLocation parses and validates a backend URI string.
func NewBlobStoreLocation(uri string) (BlobStoreLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return BlobStoreLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch parsed.Scheme {
	case "memory", "file", "s3", "ipfs", "vault":
		// Valid scheme
	default:
		return BlobStoreLocation{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return BlobStoreLocation{
		Raw:    uri,
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original URI string.
func (loc BlobStoreLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc BlobStoreLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc BlobStoreLocation) GetParamBool(name string) bool {
	value := loc.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}
