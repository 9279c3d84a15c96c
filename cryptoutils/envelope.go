package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"io"
)

const (
	// SymmetricKeySize is the AES-256 key length in bytes.
	SymmetricKeySize = 32

	// IVSize is the AES-GCM nonce length in bytes.
	IVSize = 12
)

// Encrypt encrypts plaintext under a freshly generated symmetric key with
// AES-256-GCM. A fresh random IV is drawn for every call and is never reused.
// The returned ciphertext carries the GCM authentication tag; the raw key is
// returned to the caller for wrapping and must never be persisted.
func Encrypt(plaintext []byte) (ciphertext, iv, key []byte, err error) {
	key = make([]byte, SymmetricKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: failed to generate key: %v", ErrCrypto, err)
	}

	iv = make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: failed to generate IV: %v", ErrCrypto, err)
	}

	ciphertext, err = EncryptWithKey(plaintext, key, iv)
	if err != nil {
		return nil, nil, nil, err
	}
	return ciphertext, iv, key, nil
}

// EncryptWithKey encrypts plaintext with AES-256-GCM under a caller-provided
// key and IV. Callers are responsible for IV uniqueness per key.
func EncryptWithKey(plaintext, key, iv []byte) ([]byte, error) {
	aesGCM, err := newGCM(key, iv)
	if err != nil {
		return nil, err
	}
	return aesGCM.Seal(nil, iv, plaintext, nil), nil
}

// Decrypt authenticates and decrypts AES-256-GCM ciphertext. Any mismatch in
// key, IV, or ciphertext bits fails the tag check and no plaintext is
// returned.
func Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	aesGCM, err := newGCM(key, iv)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrCrypto)
	}
	return plaintext, nil
}

func newGCM(key, iv []byte) (cipher.AEAD, error) {
	if len(key) != SymmetricKeySize {
		return nil, fmt.Errorf("%w: symmetric key must be %d bytes", ErrCrypto, SymmetricKeySize)
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: IV must be %d bytes", ErrCrypto, IVSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create cipher: %v", ErrCrypto, err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create GCM: %v", ErrCrypto, err)
	}
	return aesGCM, nil
}

// WrapKey encrypts raw symmetric key bytes under the recipient's RSA public
// key with OAEP. SHA-256 is the OAEP hash on both the wrap and unwrap side;
// the two must never diverge.
func WrapKey(key []byte, recipient PublicKeyPEM) ([]byte, error) {
	rsaPub, err := recipient.GetRSAPublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, rsaPub, key, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: key wrap failed", ErrCrypto)
	}
	return wrapped, nil
}

// UnwrapKey recovers raw symmetric key bytes wrapped with WrapKey. Padding
// failures surface as ErrCrypto without detail so that nothing about the
// key material leaks through the error path.
func UnwrapKey(wrapped []byte, recipient PrivateKeyPEM) ([]byte, error) {
	rsaPriv, err := recipient.GetRSAPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, rsaPriv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: key unwrap failed", ErrCrypto)
	}
	return key, nil
}
