package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/smallbiznis/vendo/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "unit-test-secret"

func newTestVerifier(t *testing.T) Verifier {
	t.Helper()
	verifier, err := NewVerifier(config.Config{AuthJWTSecret: testJWTSecret}, zap.NewNop())
	require.NoError(t, err)
	return verifier
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier(config.Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestVerifyToken(t *testing.T) {
	verifier := newTestVerifier(t)
	buyerID := uuid.New()

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, testJWTSecret, jwt.MapClaims{
			"sub": buyerID.String(),
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		subject, ok := verifier.VerifyToken(token)
		require.True(t, ok)
		assert.Equal(t, buyerID, subject.ID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{"sub": buyerID.String()})
		_, ok := verifier.VerifyToken(token)
		assert.False(t, ok)
	})

	t.Run("expired", func(t *testing.T) {
		token := signToken(t, testJWTSecret, jwt.MapClaims{
			"sub": buyerID.String(),
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		_, ok := verifier.VerifyToken(token)
		assert.False(t, ok)
	})

	t.Run("missing sub", func(t *testing.T) {
		token := signToken(t, testJWTSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
		_, ok := verifier.VerifyToken(token)
		assert.False(t, ok)
	})

	t.Run("sub is not a uuid", func(t *testing.T) {
		token := signToken(t, testJWTSecret, jwt.MapClaims{"sub": "buyer-42"})
		_, ok := verifier.VerifyToken(token)
		assert.False(t, ok)
	})

	t.Run("unsigned alg rejected", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": buyerID.String(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, ok := verifier.VerifyToken(token)
		assert.False(t, ok)
	})
}

func TestFromAuthorization(t *testing.T) {
	verifier := newTestVerifier(t)
	buyerID := uuid.New()
	token := signToken(t, testJWTSecret, jwt.MapClaims{
		"sub": buyerID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	subject, ok := verifier.FromAuthorization("Bearer " + token)
	require.True(t, ok)
	assert.Equal(t, buyerID, subject.ID)

	for _, header := range []string{"", "Bearer ", token, "Basic " + token} {
		_, ok := verifier.FromAuthorization(header)
		assert.False(t, ok, "header %q", header)
	}
}
