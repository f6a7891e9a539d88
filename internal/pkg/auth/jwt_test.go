package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-checkout/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTManager_RoundTrip(t *testing.T) {
	j := NewJWTManager(config.JWTConfig{Secret: testSecret, Issuer: "auth"})

	token, err := j.GenerateAccessToken("u1", "u1@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := j.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
	assert.Equal(t, "u1@example.com", claims.Email)
}

func TestJWTManager_Rejects(t *testing.T) {
	j := NewJWTManager(config.JWTConfig{Secret: testSecret, Issuer: "auth"})

	expired, err := j.GenerateAccessToken("u1", "", -time.Minute)
	require.NoError(t, err)

	other := NewJWTManager(config.JWTConfig{Secret: "ffffffffffffffffffffffffffffffff", Issuer: "auth"})
	forged, err := other.GenerateAccessToken("u1", "", time.Hour)
	require.NoError(t, err)

	wrongIssuer := NewJWTManager(config.JWTConfig{Secret: testSecret, Issuer: "someone-else"})
	foreign, err := wrongIssuer.GenerateAccessToken("u1", "", time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": forged,
		"wrong issuer": foreign,
		"garbage":      "not-a-token",
	} {
		_, err := j.ValidateAccessToken(token)
		assert.Error(t, err, name)
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromHeader(""))
}
