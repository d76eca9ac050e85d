package utils

import (
	"testing"
	"time"

	"villamar/config"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	token, err := GenerateAdminToken("admin-1", "admin@villamar.example", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := ExtractAdminIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", subject)
}

func TestExtractAdminIdentityRejectsNonAdminRole(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  "guest-1",
		"role": "guest",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey())
	require.NoError(t, err)

	_, err = ExtractAdminIdentity(signed)
	require.Error(t, err)
}

func TestExtractAdminIdentityRejectsExpiredToken(t *testing.T) {
	token, err := GenerateAdminToken("admin-1", "admin@villamar.example", -time.Minute)
	require.NoError(t, err)

	_, err = ExtractAdminIdentity(token)
	require.Error(t, err)
}

func TestExtractAdminIdentityRejectsGarbage(t *testing.T) {
	_, err := ExtractAdminIdentity("not-a-token")
	require.Error(t, err)
}

func TestSigningSecretComesFromConfig(t *testing.T) {
	prev := config.AppConfig.JWTSecret
	config.AppConfig.JWTSecret = "configured-secret"
	t.Cleanup(func() { config.AppConfig.JWTSecret = prev })

	token, err := GenerateAdminToken("admin-1", "admin@villamar.example", time.Hour)
	require.NoError(t, err)

	subject, err := ExtractAdminIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", subject)

	// A token minted under a different secret must not validate.
	config.AppConfig.JWTSecret = "rotated-secret"
	_, err = ExtractAdminIdentity(token)
	require.Error(t, err)
}
