package kms

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-Harshk/SeSPHR/cryptoutils"
	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

func TestRewrapReleasesKeyToRecipient(t *testing.T) {
	broker, err := GenerateSimpleBroker()
	require.NoError(t, err)

	recipientPriv, recipientPub, err := cryptoutils.GenerateKeypair()
	require.NoError(t, err)

	// Client-side upload flow: fresh key wrapped under the broker pubkey.
	_, _, key, err := cryptoutils.Encrypt([]byte("record"))
	require.NoError(t, err)
	escrowWrapped, err := cryptoutils.WrapKey(key, broker.PublicKey())
	require.NoError(t, err)

	rewrapped, err := broker.Rewrap(escrowWrapped, recipientPub)
	require.NoError(t, err)
	require.NotEqual(t, escrowWrapped, rewrapped)

	recovered, err := cryptoutils.UnwrapKey(rewrapped, recipientPriv)
	require.NoError(t, err)
	assert.Equal(t, key, recovered)
}

func TestRewrapFailsClosedOnBadEscrowKey(t *testing.T) {
	broker, err := GenerateSimpleBroker()
	require.NoError(t, err)
	otherBroker, err := GenerateSimpleBroker()
	require.NoError(t, err)

	_, recipientPub, err := cryptoutils.GenerateKeypair()
	require.NoError(t, err)

	// Wrapped under a different broker's key: unwrap must fail, and the
	// input must never be passed through as output.
	escrowWrapped, err := cryptoutils.WrapKey(make([]byte, cryptoutils.SymmetricKeySize), otherBroker.PublicKey())
	require.NoError(t, err)

	out, err := broker.Rewrap(escrowWrapped, recipientPub)
	require.ErrorIs(t, err, cryptoutils.ErrCrypto)
	assert.Nil(t, out)
}

func TestRewrapFailsClosedOnBadRecipientKey(t *testing.T) {
	broker, err := GenerateSimpleBroker()
	require.NoError(t, err)

	escrowWrapped, err := cryptoutils.WrapKey(make([]byte, cryptoutils.SymmetricKeySize), broker.PublicKey())
	require.NoError(t, err)

	out, err := broker.Rewrap(escrowWrapped, interfaces.PublicKeyPEM("not a key"))
	require.ErrorIs(t, err, cryptoutils.ErrCrypto)
	assert.Nil(t, out)
}

func TestSealedBrokerRoundtrip(t *testing.T) {
	broker, err := GenerateSimpleBroker()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "escrow.sealed")
	passphrase := []byte("operator passphrase")
	require.NoError(t, broker.SaveSealed(path, passphrase))

	reloaded, err := LoadSealedBroker(path, passphrase)
	require.NoError(t, err)
	assert.Equal(t, broker.PublicKey(), reloaded.PublicKey())

	_, err = LoadSealedBroker(path, []byte("wrong"))
	require.Error(t, err)
}
