package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimillas/taycan-raffle/internal/domain"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifier_BuyerFromHeader(t *testing.T) {
	v := NewVerifier(testSecret)

	t.Run("valid token yields subject", func(t *testing.T) {
		tok := signToken(t, testSecret, jwt.RegisteredClaims{
			Subject:   "buyer-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		buyer, err := v.BuyerFromHeader("Bearer " + tok)
		require.NoError(t, err)
		assert.Equal(t, "buyer-1", buyer)
	})

	t.Run("missing bearer prefix", func(t *testing.T) {
		_, err := v.BuyerFromHeader("Token abc")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok := signToken(t, "other-secret", jwt.RegisteredClaims{Subject: "buyer-1"})
		_, err := v.BuyerFromHeader("Bearer " + tok)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		tok := signToken(t, testSecret, jwt.RegisteredClaims{
			Subject:   "buyer-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		})
		_, err := v.BuyerFromHeader("Bearer " + tok)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("missing subject", func(t *testing.T) {
		tok := signToken(t, testSecret, jwt.RegisteredClaims{})
		_, err := v.BuyerFromHeader("Bearer " + tok)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestBuyerContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, BuyerID(ctx))

	ctx = WithBuyer(ctx, "buyer-7")
	assert.Equal(t, "buyer-7", BuyerID(ctx))
}
