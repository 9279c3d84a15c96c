package kms

import (
	"fmt"

	"github.com/sudo-Harshk/SeSPHR/cryptoutils"
	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// SimpleBroker custodies the escrow keypair in memory. Every uploaded file's
// symmetric key is wrapped under the broker public key; on an approved
// access request the broker unwraps and immediately rewraps for the
// recipient. The keypair is immutable after construction, so broker
// operations share no mutable state and run concurrently without locking.
type SimpleBroker struct {
	priv cryptoutils.PrivateKeyPEM
	pub  cryptoutils.PublicKeyPEM
}

// NewSimpleBroker creates a broker around an existing escrow private key.
func NewSimpleBroker(priv cryptoutils.PrivateKeyPEM) (*SimpleBroker, error) {
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("invalid escrow private key: %w", err)
	}

	pub, err := priv.Public()
	if err != nil {
		return nil, fmt.Errorf("failed to derive escrow public key: %w", err)
	}

	return &SimpleBroker{priv: priv, pub: pub}, nil
}

// GenerateSimpleBroker creates a broker with a fresh escrow keypair.
// Suitable for first boot and tests; persist the key with SaveSealed.
func GenerateSimpleBroker() (*SimpleBroker, error) {
	priv, _, err := cryptoutils.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	return NewSimpleBroker(priv)
}

// LoadSealedBroker opens an argon2id-sealed escrow keystore written by
// SaveSealed and constructs a broker from it.
func LoadSealedBroker(path string, passphrase []byte) (*SimpleBroker, error) {
	priv, err := cryptoutils.OpenPrivateKeyFromFile(path, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal escrow keystore: %w", err)
	}
	return NewSimpleBroker(priv)
}

// SaveSealed persists the escrow private key sealed under a passphrase.
// The key is never written in the clear.
func (b *SimpleBroker) SaveSealed(path string, passphrase []byte) error {
	return cryptoutils.SealPrivateKeyToFile(b.priv, passphrase, path)
}

// PublicKey returns the broker's public key for client-side wrap at upload
// time.
func (b *SimpleBroker) PublicKey() interfaces.PublicKeyPEM {
	return b.pub
}

// Rewrap unwraps an escrow-wrapped symmetric key and immediately wraps it
// for the recipient. The raw key exists only for the duration of this call
// and is zeroed before return; it is never logged, cached, or persisted.
// Any failure is fail-closed: the caller gets an error, never stale or
// partially-processed key bytes.
func (b *SimpleBroker) Rewrap(escrowWrapped interfaces.WrappedKey, recipient interfaces.PublicKeyPEM) (interfaces.WrappedKey, error) {
	raw, err := cryptoutils.UnwrapKey(escrowWrapped, b.priv)
	if err != nil {
		return nil, fmt.Errorf("escrow unwrap: %w", err)
	}
	defer zero(raw)

	rewrapped, err := cryptoutils.WrapKey(raw, recipient)
	if err != nil {
		return nil, fmt.Errorf("recipient wrap: %w", err)
	}
	return rewrapped, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
