package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/cimillas/taycan-raffle/internal/domain"
)

type buyerKey struct{}

// WithBuyer stores the authenticated buyer id in the context.
func WithBuyer(ctx context.Context, buyerID string) context.Context {
	return context.WithValue(ctx, buyerKey{}, buyerID)
}

// BuyerID returns the authenticated buyer id, or "" when unauthenticated.
func BuyerID(ctx context.Context) string {
	id, _ := ctx.Value(buyerKey{}).(string)
	return id
}

// Verifier validates buyer bearer tokens. Token issuance belongs to the
// identity service; this side only checks the HS256 signature and subject.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// BuyerFromHeader extracts and verifies the Authorization header value,
// returning the buyer id from the token subject.
func (v *Verifier) BuyerFromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", domain.ErrUnauthorized
	}
	return v.BuyerFromToken(strings.TrimPrefix(header, prefix))
}

// BuyerFromToken verifies a raw JWT and returns its subject.
func (v *Verifier) BuyerFromToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
