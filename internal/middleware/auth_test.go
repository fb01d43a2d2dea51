package middleware

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plume/internal/config"
)

func initTestSecret(t *testing.T, secret string) {
	t.Helper()
	InitMiddleware(&config.Config{JWTSecret: secret})
}

func TestTokenRoundTrip(t *testing.T) {
	initTestSecret(t, "round-trip-secret")

	token, err := GenerateToken(42, uuid.NewString(), time.Hour)
	require.NoError(t, err)

	id, err := ParseUserID(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestExpiredTokenRejected(t *testing.T) {
	initTestSecret(t, "round-trip-secret")

	token, err := GenerateToken(42, uuid.NewString(), -time.Minute)
	require.NoError(t, err)

	_, err = ParseUserID(token)
	assert.Error(t, err)
}

func TestTokenSignedWithOtherSecretRejected(t *testing.T) {
	initTestSecret(t, "secret-one")
	token, err := GenerateToken(42, uuid.NewString(), time.Hour)
	require.NoError(t, err)

	initTestSecret(t, "secret-two")
	_, err = ParseUserID(token)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	initTestSecret(t, "round-trip-secret")

	_, err := ParseUserID("not.a.token")
	assert.Error(t, err)
}
