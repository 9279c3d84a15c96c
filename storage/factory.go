package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// Factory creates blob store backends from URI strings and manages
// multi-backend configurations for redundant storage.
type Factory struct {
	log *slog.Logger
}

// NewFactory creates a new factory instance that can create blob store
// backends.
func NewFactory(logger *slog.Logger) *Factory {
	return &Factory{log: logger}
}

// BlobStoreFor creates a blob store backend from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - memory:// - In-memory storage, for tests and ephemeral deployments
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS distributed storage
//   - vault:// - HashiCorp Vault KV v2 secrets engine
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *Factory) BlobStoreFor(location interfaces.BlobStoreLocation) (interfaces.BlobStore, error) {
	switch strings.ToLower(location.Scheme) {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return sf.createFileStore(location)
	case "s3":
		return sf.createS3Backend(location)
	case "ipfs":
		return sf.createIPFSBackend(location)
	case "vault":
		return sf.createVaultBackend(location)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme: %s", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiStore creates a multi-backend blob store from a list of
// location URIs. The multi-store aggregates all valid backends, storing
// blobs to every available backend and fetching from the first one that has
// the content. Returns an error if no valid backends could be created.
func (sf *Factory) CreateMultiStore(locations []interfaces.BlobStoreLocation) (interfaces.BlobStore, error) {
	backends := make([]interfaces.BlobStore, 0, len(locations))

	for _, loc := range locations {
		backend, err := sf.BlobStoreFor(loc)
		if err != nil {
			sf.log.Warn("Failed to create blob store backend",
				"err", err,
				slog.String("locationURI", loc.String()))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid blob store backends created")
	}

	return NewMultiStore(backends, sf.log), nil
}

// createFileStore creates a file system blob store.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *Factory) createFileStore(loc interfaces.BlobStoreLocation) (interfaces.BlobStore, error) {
	sf.log.Debug("Creating file store", slog.String("uri", loc.String()))

	path := loc.Path
	if loc.Host != "" {
		path = loc.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("empty path in file URI: %s", loc.String())
	}

	return NewFileStore(path, sf.log)
}

// createS3Backend creates an S3 or S3-compatible blob store backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com
// The backend supports both public buckets (read-only) and authenticated
// access.
func (sf *Factory) createS3Backend(loc interfaces.BlobStoreLocation) (interfaces.BlobStore, error) {
	sf.log.Debug("Creating S3 backend", slog.String("uri", loc.String()))

	bucketName := loc.Host
	path := strings.TrimPrefix(loc.Path, "/")

	region := loc.GetParam("region")
	if region == "" {
		region = "us-east-1"
	}

	endpoint := loc.GetParam("endpoint")

	var accessKey, secretKey string
	if loc.Auth != "" {
		if user, err := url.Parse("s3://" + loc.Auth + "@host"); err == nil && user.User != nil {
			accessKey = user.User.Username()
			secretKey, _ = user.User.Password()
		}
		sf.log.Debug("Using embedded credentials for write access")
	} else {
		sf.log.Debug("No credentials provided, S3 bucket assumed to be public, write operations may fail")
	}

	return NewS3Backend(bucketName, path, region, endpoint, accessKey, secretKey, sf.log)
}

// createIPFSBackend creates an IPFS blob store backend.
// URI format: ipfs://host:port/?timeout=30s
func (sf *Factory) createIPFSBackend(loc interfaces.BlobStoreLocation) (interfaces.BlobStore, error) {
	sf.log.Debug("Creating IPFS backend", slog.String("uri", loc.String()))

	host, port, ok := strings.Cut(loc.Host, ":")
	if !ok || port == "" {
		host = loc.Host
		port = "5001" // Default IPFS API port
	}

	timeout := loc.GetParam("timeout")
	if timeout == "" {
		timeout = "30s"
	}

	return NewIPFSBackend(host, port, timeout, sf.log)
}

// createVaultBackend creates a HashiCorp Vault blob store backend.
// URI format: vault://host:port/mount/path?token=...&tls=true
func (sf *Factory) createVaultBackend(loc interfaces.BlobStoreLocation) (interfaces.BlobStore, error) {
	sf.log.Debug("Creating Vault backend", slog.String("uri", loc.String()))

	scheme := "http"
	if loc.GetParamBool("tls") {
		scheme = "https"
	}
	address := fmt.Sprintf("%s://%s", scheme, loc.Host)

	parts := strings.SplitN(strings.Trim(loc.Path, "/"), "/", 2)
	mountPath := "secret"
	dataPath := "sesphr"
	if len(parts) > 0 && parts[0] != "" {
		mountPath = parts[0]
	}
	if len(parts) > 1 && parts[1] != "" {
		dataPath = parts[1]
	}

	token := loc.GetParam("token")

	return NewVaultBackend(address, token, mountPath, dataPath, sf.log)
}
