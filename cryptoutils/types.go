package cryptoutils

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrCrypto is the base error for every cryptographic failure in the system.
// Wrapped errors never carry key material or plaintext in their messages.
var ErrCrypto = errors.New("crypto operation failed")

// PublicKeyPEM represents an RSA public key in PKIX PEM format.
type PublicKeyPEM []byte

// NewPublicKeyPEM creates a public key object from PEM-encoded data with validation.
func NewPublicKeyPEM(data []byte) (PublicKeyPEM, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, errors.New("invalid public key: not a PEM-encoded PUBLIC KEY block")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("invalid public key structure: %w", err)
	}

	if _, ok := parsed.(*rsa.PublicKey); !ok {
		return nil, errors.New("invalid public key: not an RSA key")
	}

	return PublicKeyPEM(data), nil
}

// Validate checks if the public key is properly formed.
func (pub PublicKeyPEM) Validate() error {
	_, err := NewPublicKeyPEM(pub)
	return err
}

// GetRSAPublicKey returns the parsed RSA public key.
func (pub PublicKeyPEM) GetRSAPublicKey() (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pub)
	if block == nil {
		return nil, errors.New("failed to decode public key PEM block")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	rsaKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaKey, nil
}

// PrivateKeyPEM represents an RSA private key in PKCS#8 PEM format.
type PrivateKeyPEM []byte

// NewPrivateKeyPEM creates a private key object from PEM-encoded data with validation.
func NewPrivateKeyPEM(data []byte) (PrivateKeyPEM, error) {
	key := PrivateKeyPEM(data)
	if _, err := key.GetRSAPrivateKey(); err != nil {
		return nil, err
	}
	return key, nil
}

// Validate checks if the private key is properly formed.
func (priv PrivateKeyPEM) Validate() error {
	_, err := priv.GetRSAPrivateKey()
	return err
}

// GetRSAPrivateKey returns the parsed RSA private key. Both PKCS#8 and
// PKCS#1 encodings are accepted.
func (priv PrivateKeyPEM) GetRSAPrivateKey() (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(priv)
	if block == nil {
		return nil, errors.New("failed to decode private key PEM block")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		rsaKey, err1 := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err1 != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		return rsaKey, nil
	}

	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an RSA private key")
	}
	return rsaKey, nil
}

// Public returns the PEM-encoded public half of the private key.
func (priv PrivateKeyPEM) Public() (PublicKeyPEM, error) {
	rsaKey, err := priv.GetRSAPrivateKey()
	if err != nil {
		return nil, err
	}

	pubBytes, err := x509.MarshalPKIXPublicKey(&rsaKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	return PublicKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})), nil
}
