package cryptoutils

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/argon2"
)

// Sealed keystore parameters. The seal key is derived from a passphrase with
// Argon2id; parameters follow the RFC 9106 second recommended option.
const (
	sealSaltSize    = 16
	argonTime       = 1
	argonMemoryKiB  = 64 * 1024
	argonThreads    = 4
)

// deriveSealKey stretches a passphrase into an AES-256 seal key.
func deriveSealKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemoryKiB, argonThreads, SymmetricKeySize)
}

// SealPrivateKey encrypts a private key PEM under a passphrase-derived key
// for at-rest storage. Output format: salt || iv || AES-GCM ciphertext.
func SealPrivateKey(priv PrivateKeyPEM, passphrase []byte) ([]byte, error) {
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("%w: refusing to seal malformed key: %v", ErrCrypto, err)
	}

	salt := make([]byte, sealSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("%w: failed to generate salt: %v", ErrCrypto, err)
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("%w: failed to generate IV: %v", ErrCrypto, err)
	}

	sealKey := deriveSealKey(passphrase, salt)
	ciphertext, err := EncryptWithKey(priv, sealKey, iv)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, sealSaltSize+IVSize+len(ciphertext))
	sealed = append(sealed, salt...)
	sealed = append(sealed, iv...)
	sealed = append(sealed, ciphertext...)
	return sealed, nil
}

// OpenPrivateKey decrypts a sealed private key blob produced by
// SealPrivateKey. A wrong passphrase fails the GCM tag check.
func OpenPrivateKey(sealed, passphrase []byte) (PrivateKeyPEM, error) {
	if len(sealed) < sealSaltSize+IVSize {
		return nil, fmt.Errorf("%w: sealed keystore blob too short", ErrCrypto)
	}

	salt := sealed[:sealSaltSize]
	iv := sealed[sealSaltSize : sealSaltSize+IVSize]
	ciphertext := sealed[sealSaltSize+IVSize:]

	sealKey := deriveSealKey(passphrase, salt)
	plaintext, err := Decrypt(ciphertext, sealKey, iv)
	if err != nil {
		return nil, err
	}

	return NewPrivateKeyPEM(plaintext)
}

// SealPrivateKeyToFile seals a private key and writes the blob to path with
// owner-only permissions.
func SealPrivateKeyToFile(priv PrivateKeyPEM, passphrase []byte, path string) error {
	sealed, err := SealPrivateKey(priv, passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write sealed keystore: %w", err)
	}
	return nil
}

// OpenPrivateKeyFromFile reads and unseals a private key blob written by
// SealPrivateKeyToFile.
func OpenPrivateKeyFromFile(path string, passphrase []byte) (PrivateKeyPEM, error) {
	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sealed keystore: %w", err)
	}
	return OpenPrivateKey(sealed, passphrase)
}
