package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/sudo-Harshk/SeSPHR/access"
	"github.com/sudo-Harshk/SeSPHR/audit"
	"github.com/sudo-Harshk/SeSPHR/cmd/flags"
	"github.com/sudo-Harshk/SeSPHR/cryptoutils"
	"github.com/sudo-Harshk/SeSPHR/httpserver"
	"github.com/sudo-Harshk/SeSPHR/identity"
	"github.com/sudo-Harshk/SeSPHR/interfaces"
	"github.com/sudo-Harshk/SeSPHR/kms"
	"github.com/sudo-Harshk/SeSPHR/registry"
	"github.com/sudo-Harshk/SeSPHR/storage"
)

var serverFlags = append([]cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to listen on for API",
	},
	&cli.StringFlag{
		Name:  "data-dir",
		Value: "./data",
		Usage: "directory for the audit ledger, file registry, and local blobs",
	},
	&cli.StringSliceFlag{
		Name:  "storage-uri",
		Usage: "blob store backend URIs (memory://, file://, s3://, ipfs://, vault://); defaults to file storage under data-dir",
	},
	&cli.StringFlag{
		Name:  "principals-file",
		Usage: "JSON file with principal ids, attributes, and public keys",
	},
	&cli.StringFlag{
		Name:  "broker-type",
		Value: "simple",
		Usage: "escrow key broker type: 'simple' or 'shamir'",
	},
	&cli.StringFlag{
		Name:  "broker-passphrase",
		Usage: "passphrase sealing the broker private key on disk (required for 'simple')",
	},
	&cli.IntFlag{
		Name:  "shamir-shares",
		Value: 5,
		Usage: "number of admin shares to split the broker seal key into",
	},
	&cli.IntFlag{
		Name:  "shamir-threshold",
		Value: 3,
		Usage: "shares required to unlock the broker",
	},
	&cli.StringSliceFlag{
		Name:  "shamir-share",
		Usage: "admin share for recovery unlock, formatted as index:hex (repeatable)",
	},
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "sesphr",
		Usage: "Serve the encrypted health record coordinator API",
		Flags: serverFlags,
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	dataDir := cCtx.String("data-dir")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	identityStore, err := loadIdentity(cCtx, logger)
	if err != nil {
		return err
	}

	ledger, err := audit.OpenFileLedger(filepath.Join(dataDir, "audit.jsonl"), logger)
	if err != nil {
		logger.Error("Failed to open audit ledger", "err", err)
		return err
	}

	fileRegistry, err := registry.OpenFileRegistry(filepath.Join(dataDir, "files.json"), logger)
	if err != nil {
		logger.Error("Failed to open file registry", "err", err)
		return err
	}

	broker, err := setupBroker(cCtx, dataDir, logger)
	if err != nil {
		logger.Error("Failed to set up key broker", "err", err)
		return err
	}

	blobs, err := setupBlobStore(cCtx, dataDir, logger)
	if err != nil {
		logger.Error("Failed to set up blob store", "err", err)
		return err
	}

	coordinator := access.NewCoordinator(identityStore, broker, ledger, fileRegistry, logger)
	handler := httpserver.NewHandler(coordinator, blobs, logger)

	cfg := flags.ConfigureServer(cCtx, logger, cCtx.String("listen-addr"))
	server, err := httpserver.New(cfg, handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")

	return nil
}

func loadIdentity(cCtx *cli.Context, logger *slog.Logger) (*identity.Store, error) {
	path := cCtx.String("principals-file")
	if path == "" {
		logger.Warn("No principals file provided, starting with an empty identity store")
		return identity.NewStore(), nil
	}

	store, err := identity.LoadFromFile(path)
	if err != nil {
		logger.Error("Failed to load principals", "err", err, "file", path)
		return nil, err
	}

	logger.Info("Principals loaded", "file", path)
	return store, nil
}

// setupBroker initializes the escrow key broker. The simple broker seals its
// private key under a passphrase; the shamir broker splits the seal key into
// admin shares and requires a threshold of them on restart.
func setupBroker(cCtx *cli.Context, dataDir string, logger *slog.Logger) (interfaces.KeyBroker, error) {
	switch cCtx.String("broker-type") {
	case "simple":
		return setupSimpleBroker(cCtx, dataDir, logger)
	case "shamir":
		return setupShamirBroker(cCtx, dataDir, logger)
	default:
		return nil, fmt.Errorf("invalid broker-type: %s", cCtx.String("broker-type"))
	}
}

func setupSimpleBroker(cCtx *cli.Context, dataDir string, logger *slog.Logger) (interfaces.KeyBroker, error) {
	passphrase := cCtx.String("broker-passphrase")
	if passphrase == "" {
		return nil, errors.New("broker-passphrase is required for the simple broker")
	}

	keyPath := filepath.Join(dataDir, "broker.sealed")

	if _, err := os.Stat(keyPath); err == nil {
		broker, err := kms.LoadSealedBroker(keyPath, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("failed to open sealed broker key: %w", err)
		}
		logger.Info("Escrow broker key loaded", "file", keyPath)
		return broker, nil
	}

	broker, err := kms.GenerateSimpleBroker()
	if err != nil {
		return nil, err
	}
	if err := broker.SaveSealed(keyPath, []byte(passphrase)); err != nil {
		return nil, fmt.Errorf("failed to seal broker key: %w", err)
	}

	logger.Info("Generated new escrow broker key", "file", keyPath)
	return broker, nil
}

func setupShamirBroker(cCtx *cli.Context, dataDir string, logger *slog.Logger) (interfaces.KeyBroker, error) {
	config := kms.ShamirConfig{
		Shares:    cCtx.Int("shamir-shares"),
		Threshold: cCtx.Int("shamir-threshold"),
	}
	sealedPath := filepath.Join(dataDir, "broker.shamir")
	pubPath := filepath.Join(dataDir, "broker.pub")

	if _, err := os.Stat(sealedPath); err == nil {
		sealed, err := os.ReadFile(sealedPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read sealed broker blob: %w", err)
		}
		pubPEM, err := os.ReadFile(pubPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read broker public key: %w", err)
		}
		pub, err := cryptoutils.NewPublicKeyPEM(pubPEM)
		if err != nil {
			return nil, err
		}

		broker, err := kms.NewShamirBrokerRecovery(sealed, pub, config)
		if err != nil {
			return nil, err
		}

		for _, raw := range cCtx.StringSlice("shamir-share") {
			index, share, err := parseShare(raw)
			if err != nil {
				return nil, err
			}
			if err := broker.SubmitShare(index, share); err != nil {
				return nil, fmt.Errorf("share %d rejected: %w", index, err)
			}
		}

		if !broker.Unlocked() {
			logger.Warn("Broker is locked, access requests will be denied until enough shares arrive",
				"threshold", config.Threshold)
		} else {
			logger.Info("Escrow broker unlocked from admin shares")
		}
		return broker, nil
	}

	priv, _, err := cryptoutils.GenerateKeypair()
	if err != nil {
		return nil, err
	}

	broker, shares, err := kms.NewShamirBroker(priv, config)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(sealedPath, broker.SealedBlob(), 0600); err != nil {
		return nil, fmt.Errorf("failed to write sealed broker blob: %w", err)
	}
	if err := os.WriteFile(pubPath, []byte(broker.PublicKey()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write broker public key: %w", err)
	}

	// Shares are printed exactly once and never stored by the server.
	fmt.Fprintln(os.Stderr, "New escrow broker created. Distribute these admin shares securely:")
	for i, share := range shares {
		fmt.Fprintf(os.Stderr, "  share %d: %d:%s\n", i+1, i+1, hex.EncodeToString(share))
	}

	logger.Info("Generated new shamir-sealed escrow broker",
		"shares", config.Shares, "threshold", config.Threshold)
	return broker, nil
}

func parseShare(raw string) (int, []byte, error) {
	idxStr, hexStr, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, nil, fmt.Errorf("invalid share %q, expected index:hex", raw)
	}
	index, err := strconv.Atoi(idxStr)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid share index %q: %w", idxStr, err)
	}
	share, err := hex.DecodeString(hexStr)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid share encoding: %w", err)
	}
	return index, share, nil
}

func setupBlobStore(cCtx *cli.Context, dataDir string, logger *slog.Logger) (interfaces.BlobStore, error) {
	uris := cCtx.StringSlice("storage-uri")
	if len(uris) == 0 {
		uris = []string{"file://" + filepath.Join(dataDir, "blobs")}
	}

	locations := make([]interfaces.BlobStoreLocation, 0, len(uris))
	for _, uri := range uris {
		loc, err := interfaces.NewBlobStoreLocation(uri)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}

	return storage.NewFactory(logger).CreateMultiStore(locations)
}
