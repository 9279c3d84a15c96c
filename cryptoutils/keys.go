package cryptoutils

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// rsaKeyBits is the modulus size for all principal and escrow keypairs.
const rsaKeyBits = 2048

// GenerateKeypair creates a new RSA-2048 keypair for a principal or the
// escrow broker. The private key is returned in PKCS#8 PEM format, the
// public key in PKIX PEM format.
func GenerateKeypair() (PrivateKeyPEM, PublicKeyPEM, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	privBytes, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes})

	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	return PrivateKeyPEM(privPEM), PublicKeyPEM(pubPEM), nil
}
