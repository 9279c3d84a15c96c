package kms

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/vault/shamir"
	"github.com/sudo-Harshk/SeSPHR/cryptoutils"
	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// ShamirBroker keeps the escrow private key sealed until a threshold of
// administrator shares is submitted. The seal secret is split with Shamir's
// Secret Sharing at setup time and never stored; on restart the broker
// starts locked and administrators submit their shares to reconstruct the
// secret and unseal the key in memory.
//
// Rewrap fails with interfaces.ErrBrokerLocked until unlocked. The public
// key is not secret and remains available while locked so uploads can
// continue.
type ShamirBroker struct {
	mu             sync.RWMutex
	inner          *SimpleBroker // nil while locked
	sealed         []byte        // argon2id-sealed escrow private key
	pub            cryptoutils.PublicKeyPEM
	threshold      int
	receivedShares map[int][]byte
}

// ShamirConfig sets the share distribution for a ShamirBroker.
type ShamirConfig struct {
	// Shares is the number of administrator shares to produce.
	Shares int
	// Threshold is the minimum number of shares required to unseal.
	Threshold int
}

func (c ShamirConfig) validate() error {
	if c.Threshold < 2 {
		return errors.New("threshold must be at least 2")
	}
	if c.Shares < c.Threshold {
		return errors.New("total shares must be at least equal to threshold")
	}
	return nil
}

// NewShamirBroker seals an escrow private key under a fresh random secret,
// splits the secret into administrator shares, and returns the broker in
// the unlocked state together with the shares. The shares must be securely
// distributed and the returned broker's sealed blob persisted for recovery.
func NewShamirBroker(priv cryptoutils.PrivateKeyPEM, config ShamirConfig) (*ShamirBroker, [][]byte, error) {
	if err := config.validate(); err != nil {
		return nil, nil, err
	}

	inner, err := NewSimpleBroker(priv)
	if err != nil {
		return nil, nil, err
	}

	secret := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, nil, fmt.Errorf("failed to generate seal secret: %w", err)
	}

	sealed, err := cryptoutils.SealPrivateKey(priv, secret)
	if err != nil {
		return nil, nil, err
	}

	shares, err := shamir.Split(secret, config.Shares, config.Threshold)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to split seal secret: %w", err)
	}

	return &ShamirBroker{
		inner:          inner,
		sealed:         sealed,
		pub:            inner.PublicKey(),
		threshold:      config.Threshold,
		receivedShares: make(map[int][]byte),
	}, shares, nil
}

// NewShamirBrokerRecovery constructs a locked broker from a persisted sealed
// keystore blob and the escrow public key. The broker unlocks once a
// threshold of shares has been submitted.
func NewShamirBrokerRecovery(sealed []byte, pub cryptoutils.PublicKeyPEM, config ShamirConfig) (*ShamirBroker, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if err := pub.Validate(); err != nil {
		return nil, fmt.Errorf("invalid escrow public key: %w", err)
	}

	return &ShamirBroker{
		sealed:         sealed,
		pub:            pub,
		threshold:      config.Threshold,
		receivedShares: make(map[int][]byte),
	}, nil
}

// SealedBlob returns the sealed escrow keystore blob for persistence.
func (b *ShamirBroker) SealedBlob() []byte {
	out := make([]byte, len(b.sealed))
	copy(out, b.sealed)
	return out
}

// Unlocked reports whether the escrow key has been reconstructed.
func (b *ShamirBroker) Unlocked() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inner != nil
}

// SubmitShare accepts one administrator share. When the threshold is
// reached the seal secret is recombined and the escrow key unsealed; a
// combination that fails to unseal resets the collected shares so the
// submission round can restart.
func (b *ShamirBroker) SubmitShare(index int, share []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inner != nil {
		return errors.New("broker already unlocked")
	}
	if len(share) == 0 {
		return errors.New("empty share")
	}

	b.receivedShares[index] = append([]byte(nil), share...)
	if len(b.receivedShares) < b.threshold {
		return nil
	}

	shares := make([][]byte, 0, len(b.receivedShares))
	for _, s := range b.receivedShares {
		shares = append(shares, s)
	}

	secret, err := shamir.Combine(shares)
	if err != nil {
		b.receivedShares = make(map[int][]byte)
		return fmt.Errorf("failed to combine shares: %w", err)
	}

	priv, err := cryptoutils.OpenPrivateKey(b.sealed, secret)
	if err != nil {
		b.receivedShares = make(map[int][]byte)
		return fmt.Errorf("reconstructed secret does not unseal the keystore: %w", err)
	}

	inner, err := NewSimpleBroker(priv)
	if err != nil {
		return err
	}

	b.inner = inner
	b.receivedShares = nil
	return nil
}

// PublicKey returns the escrow public key. Available while locked.
func (b *ShamirBroker) PublicKey() interfaces.PublicKeyPEM {
	return b.pub
}

// Rewrap delegates to the unsealed broker, failing closed while locked.
func (b *ShamirBroker) Rewrap(escrowWrapped interfaces.WrappedKey, recipient interfaces.PublicKeyPEM) (interfaces.WrappedKey, error) {
	b.mu.RLock()
	inner := b.inner
	b.mu.RUnlock()

	if inner == nil {
		return nil, interfaces.ErrBrokerLocked
	}
	return inner.Rewrap(escrowWrapped, recipient)
}
