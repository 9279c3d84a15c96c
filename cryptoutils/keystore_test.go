package cryptoutils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenPrivateKey(t *testing.T) {
	priv, _, err := GenerateKeypair()
	require.NoError(t, err)

	passphrase := []byte("correct horse battery staple")
	sealed, err := SealPrivateKey(priv, passphrase)
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "PRIVATE KEY")

	opened, err := OpenPrivateKey(sealed, passphrase)
	require.NoError(t, err)
	require.Equal(t, priv, opened)
}

func TestOpenPrivateKeyWrongPassphrase(t *testing.T) {
	priv, _, err := GenerateKeypair()
	require.NoError(t, err)

	sealed, err := SealPrivateKey(priv, []byte("right"))
	require.NoError(t, err)

	_, err = OpenPrivateKey(sealed, []byte("wrong"))
	require.ErrorIs(t, err, ErrCrypto)
}

func TestOpenPrivateKeyTruncatedBlob(t *testing.T) {
	_, err := OpenPrivateKey(make([]byte, 10), []byte("pass"))
	require.ErrorIs(t, err, ErrCrypto)
}

func TestSealedKeystoreFileRoundtrip(t *testing.T) {
	priv, _, err := GenerateKeypair()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "escrow.sealed")
	passphrase := []byte("file passphrase")

	require.NoError(t, SealPrivateKeyToFile(priv, passphrase, path))

	opened, err := OpenPrivateKeyFromFile(path, passphrase)
	require.NoError(t, err)
	require.Equal(t, priv, opened)
}
