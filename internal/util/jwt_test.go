package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-test-secret-test-secret"

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := GenerateJWT("user-42", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
}

func TestParseJWTRejects(t *testing.T) {
	expired, err := GenerateJWT("user-42", testSecret, -time.Minute)
	require.NoError(t, err)

	noSubject, err := GenerateJWT("", testSecret, time.Hour)
	require.NoError(t, err)

	other, err := GenerateJWT("user-42", "another-secret", time.Hour)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"no subject":   noSubject,
		"wrong secret": other,
		"wrong alg":    hs512,
		"garbage":      "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJWT(token, testSecret)
			assert.Error(t, err)
		})
	}
}
