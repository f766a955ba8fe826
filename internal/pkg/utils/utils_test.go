package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestAuthTokenRoundTrip(t *testing.T) {
	token, err := GenerateAuthToken(secret, &AuthTokenWrapper{Email: "a@example.org", Role: "manager"}, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseAuthToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.org", parsed.Email)
	assert.Equal(t, "manager", parsed.Role)
	assert.NotZero(t, parsed.ExpiresAt)
}

func TestParseAuthTokenRejects(t *testing.T) {
	token, err := GenerateAuthToken(secret, &AuthTokenWrapper{Email: "a", Role: "manager"}, time.Hour)
	require.NoError(t, err)

	_, err = ParseAuthToken([]byte("other"), token)
	assert.ErrorIs(t, err, constants.ErrUnauthorized)

	_, err = ParseAuthToken(secret, "not-a-token")
	assert.ErrorIs(t, err, constants.ErrUnauthorized)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &AuthTokenWrapper{
		Email:          "a",
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Minute).Unix()},
	})
	signed, err := expired.SignedString(secret)
	require.NoError(t, err)
	_, err = ParseAuthToken(secret, signed)
	assert.ErrorIs(t, err, constants.ErrUnauthorized)
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Checksum(nil))
	assert.NotEqual(t, Checksum([]byte("a")), Checksum([]byte("b")))
}
