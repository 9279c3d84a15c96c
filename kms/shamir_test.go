package kms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-Harshk/SeSPHR/cryptoutils"
	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

func newShamirBroker(t *testing.T, config ShamirConfig) (*ShamirBroker, [][]byte) {
	t.Helper()
	priv, _, err := cryptoutils.GenerateKeypair()
	require.NoError(t, err)

	broker, shares, err := NewShamirBroker(priv, config)
	require.NoError(t, err)
	require.Len(t, shares, config.Shares)
	return broker, shares
}

func TestShamirBrokerConfigValidation(t *testing.T) {
	priv, _, err := cryptoutils.GenerateKeypair()
	require.NoError(t, err)

	_, _, err = NewShamirBroker(priv, ShamirConfig{Shares: 5, Threshold: 1})
	require.Error(t, err)

	_, _, err = NewShamirBroker(priv, ShamirConfig{Shares: 2, Threshold: 3})
	require.Error(t, err)
}

func TestShamirBrokerRecoveryUnlock(t *testing.T) {
	config := ShamirConfig{Shares: 5, Threshold: 3}
	broker, shares := newShamirBroker(t, config)
	require.True(t, broker.Unlocked())

	recovered, err := NewShamirBrokerRecovery(broker.SealedBlob(), broker.PublicKey(), config)
	require.NoError(t, err)
	require.False(t, recovered.Unlocked())

	// Locked broker still serves the public key but refuses to rewrap.
	assert.Equal(t, broker.PublicKey(), recovered.PublicKey())
	_, err = recovered.Rewrap(interfaces.WrappedKey("x"), broker.PublicKey())
	require.ErrorIs(t, err, interfaces.ErrBrokerLocked)

	require.NoError(t, recovered.SubmitShare(0, shares[0]))
	require.False(t, recovered.Unlocked())
	require.NoError(t, recovered.SubmitShare(3, shares[3]))
	require.False(t, recovered.Unlocked())
	require.NoError(t, recovered.SubmitShare(4, shares[4]))
	require.True(t, recovered.Unlocked())

	// Full rewrap path works after unlock.
	recipientPriv, recipientPub, err := cryptoutils.GenerateKeypair()
	require.NoError(t, err)
	key := make([]byte, cryptoutils.SymmetricKeySize)
	escrowWrapped, err := cryptoutils.WrapKey(key, recovered.PublicKey())
	require.NoError(t, err)

	rewrapped, err := recovered.Rewrap(escrowWrapped, recipientPub)
	require.NoError(t, err)
	unwrapped, err := cryptoutils.UnwrapKey(rewrapped, recipientPriv)
	require.NoError(t, err)
	assert.Equal(t, key, unwrapped)
}

func TestShamirBrokerBadSharesResetRound(t *testing.T) {
	config := ShamirConfig{Shares: 3, Threshold: 2}
	broker, shares := newShamirBroker(t, config)

	recovered, err := NewShamirBrokerRecovery(broker.SealedBlob(), broker.PublicKey(), config)
	require.NoError(t, err)

	// One genuine share plus one garbage share: the combination either
	// fails outright or yields a secret that cannot unseal the keystore.
	require.NoError(t, recovered.SubmitShare(0, shares[0]))
	err = recovered.SubmitShare(1, []byte("garbage share material that is long enough"))
	require.Error(t, err)
	require.False(t, recovered.Unlocked())

	// The round restarts cleanly with valid shares.
	require.NoError(t, recovered.SubmitShare(0, shares[0]))
	require.NoError(t, recovered.SubmitShare(2, shares[2]))
	require.True(t, recovered.Unlocked())
}

func TestShamirBrokerRejectsSharesWhenUnlocked(t *testing.T) {
	broker, shares := newShamirBroker(t, ShamirConfig{Shares: 3, Threshold: 2})
	require.Error(t, broker.SubmitShare(0, shares[0]))
}
