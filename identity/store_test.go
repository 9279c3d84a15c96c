package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-Harshk/SeSPHR/cryptoutils"
	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

func TestStoreRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, pub, err := cryptoutils.GenerateKeypair()
	require.NoError(t, err)

	attrs := interfaces.AttributeSet{"Role": "Doctor", "Dept": "Cardiology"}
	require.NoError(t, s.Register("doctor1", attrs, pub))

	got, err := s.GetAttributes(ctx, "doctor1")
	require.NoError(t, err)
	assert.True(t, got.Equal(attrs))

	gotKey, err := s.GetPublicKey(ctx, "doctor1")
	require.NoError(t, err)
	assert.Equal(t, pub, gotKey)

	_, err = s.GetAttributes(ctx, "ghost")
	require.ErrorIs(t, err, interfaces.ErrPrincipalNotFound)
	_, err = s.GetPublicKey(ctx, "ghost")
	require.ErrorIs(t, err, interfaces.ErrPrincipalNotFound)
}

func TestStoreRejectsBadKeyAndDuplicates(t *testing.T) {
	s := NewStore()
	require.Error(t, s.Register("p1", nil, interfaces.PublicKeyPEM("junk")))

	_, pub, err := cryptoutils.GenerateKeypair()
	require.NoError(t, err)
	require.NoError(t, s.Register("p1", nil, pub))
	require.Error(t, s.Register("p1", nil, pub))
}

func TestStoreAttributeIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, pub, err := cryptoutils.GenerateKeypair()
	require.NoError(t, err)

	attrs := interfaces.AttributeSet{"Role": "Doctor"}
	require.NoError(t, s.Register("doctor1", attrs, pub))

	// Mutating the caller's map or the returned copy must not leak into
	// the store.
	attrs["Role"] = "Admin"
	got, err := s.GetAttributes(ctx, "doctor1")
	require.NoError(t, err)
	assert.Equal(t, "Doctor", got["Role"])

	got["Role"] = "Admin"
	again, err := s.GetAttributes(ctx, "doctor1")
	require.NoError(t, err)
	assert.Equal(t, "Doctor", again["Role"])

	require.NoError(t, s.SetAttributes("doctor1", interfaces.AttributeSet{"Role": "Nurse"}))
	updated, err := s.GetAttributes(ctx, "doctor1")
	require.NoError(t, err)
	assert.Equal(t, "Nurse", updated["Role"])
}
