package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("secret", time.Hour)

	token, expiresAt, err := signer.Sign("rep-1", "debt/rep-1.csv")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	id, path, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "rep-1", id)
	assert.Equal(t, "debt/rep-1.csv", path)
}

func TestSignerRejectsTampering(t *testing.T) {
	signer := NewSigner("secret", time.Hour)

	token, _, err := signer.Sign("rep-1", "debt/rep-1.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "rep-2"
	_, _, err = signer.Verify(strings.Join(parts, "."))
	require.Error(t, err)
}

func TestSignerRejectsExpired(t *testing.T) {
	signer := NewSigner("secret", -time.Minute)
	// ttl <= 0 falls back to the default, so build an expired token manually
	signer.ttl = -time.Minute

	token, _, err := signer.Sign("rep-1", "debt/rep-1.csv")
	require.NoError(t, err)

	_, _, err = signer.Verify(token)
	require.Error(t, err)
}

func TestSignerRejectsWrongSecret(t *testing.T) {
	token, _, err := NewSigner("secret-a", time.Hour).Sign("rep-1", "file.csv")
	require.NoError(t, err)

	_, _, err = NewSigner("secret-b", time.Hour).Verify(token)
	require.Error(t, err)
}
