package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// VaultBackend implements a blob store backend using HashiCorp Vault's
// KV v2 secrets engine. Ciphertext blobs are stored base64-free as strings
// under their hex handle.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a new Vault blob store backend.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - token: Vault token used for authentication
//   - mountPath: Vault mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "sesphr")
//   - log: Structured logger for operational insights
func NewVaultBackend(address, token, mountPath, dataPath string, log *slog.Logger) (*VaultBackend, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	client.SetToken(token)

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.TrimPrefix(dataPath, "/")
	dataPath = strings.TrimSuffix(dataPath, "/")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// Get retrieves a blob from Vault by its handle.
// It uses the KV v2 API which requires a specific path structure.
func (b *VaultBackend) Get(ctx context.Context, handle interfaces.BlobHandle) ([]byte, error) {
	start := time.Now()
	handleStr := handle.String()

	path := fmt.Sprintf("%s/data/%s/%s", b.mountPath, b.dataPath, handleStr)

	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", path),
			slog.String("handle", handleStr),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		b.log.Debug("Blob not found in Vault",
			slog.String("path", path),
			slog.String("handle", handleStr))
		return nil, interfaces.ErrBlobNotFound
	}

	// KV v2 wraps the payload in a nested "data" map.
	data, ok := secret.Data["data"]
	if !ok {
		b.log.Error("Invalid data format in Vault response",
			slog.String("path", path),
			slog.String("handle", handleStr))
		return nil, fmt.Errorf("invalid data format in Vault response")
	}

	content, ok := data.(map[string]interface{})["content"]
	if !ok {
		b.log.Error("Content key not found in Vault data",
			slog.String("path", path),
			slog.String("handle", handleStr))
		return nil, fmt.Errorf("content key not found in Vault data")
	}

	contentStr, ok := content.(string)
	if !ok {
		b.log.Error("Invalid content format in Vault data",
			slog.String("path", path),
			slog.String("handle", handleStr))
		return nil, fmt.Errorf("invalid content format in Vault data")
	}

	b.log.Info("Successfully fetched blob from Vault",
		slog.String("handle", handleStr),
		slog.Duration("duration", time.Since(start)))

	return []byte(contentStr), nil
}

// Put saves a blob to Vault and returns its content-addressed handle.
func (b *VaultBackend) Put(ctx context.Context, data []byte) (interfaces.BlobHandle, error) {
	start := time.Now()

	handle := interfaces.ComputeBlobHandle(data)
	handleStr := handle.String()

	path := fmt.Sprintf("%s/data/%s/%s", b.mountPath, b.dataPath, handleStr)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"content": string(data),
		},
	}

	_, err := b.client.Logical().WriteWithContext(ctx, path, secretData)
	if err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", path),
			slog.String("handle", handleStr),
			"err", err)
		return handle, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Info("Successfully stored blob in Vault",
		slog.String("handle", handleStr),
		slog.Duration("duration", time.Since(start)))

	return handle, nil
}

// Available checks if the Vault backend is accessible.
// It uses the health endpoint to verify that Vault is initialized and
// unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this store.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

// LocationURI returns the URI that identifies this store.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}
