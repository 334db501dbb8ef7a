package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiry is the lifetime of an access token.
const DefaultTokenExpiry = 60 * time.Minute

// Claims is the access token payload: the user ID as subject plus the role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. A zero expiry uses DefaultTokenExpiry.
func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenIssuer{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue signs a token for p.
func (t *TokenIssuer) Issue(p *Principal) (string, error) {
	now := t.now()
	claims := Claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry, returning the claims.
// Every failure is reported as ErrInvalidToken.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, fmt.Errorf("%w: missing subject or role", ErrInvalidToken)
	}
	return claims, nil
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
