// Package auth provides bearer-token issuance and validation, password hashing
// and the optional GitHub OAuth login for the snippet API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client POSTs credentials to /api/auth/login
//  2. Server verifies the bcrypt hash and issues a signed JWT
//  3. Client stores the token and sends "Authorization: Bearer <jwt>" on every
//     snippet call
//  4. RequireAuth validates the JWT and puts the user ID in the request context
//
// The token is stateless: logout is purely a client-side act of forgetting it.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "snippet-vault"

	// DefaultTokenTTL applies when the configured lifetime is not positive.
	DefaultTokenTTL = time.Hour

	minSecretLength = 16
)

var (
	ErrWeakSecret   = fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLength)
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// TokenService signs and checks HS256 tokens whose subject is a user ID.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is how long a freshly issued token stays valid.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate issues a token for userID.
func (s *TokenService) Generate(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty subject", ErrTokenInvalid)
	}
	issued := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate returns the user ID carried by tokenStr.
//
// Only HS256 is accepted, which rules out "alg: none". Tokens from another
// issuer and tokens without an expiry are rejected. An expired token yields
// ErrTokenExpired; every other failure wraps ErrTokenInvalid.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	case claims.Subject == "":
		return "", fmt.Errorf("%w: no subject", ErrTokenInvalid)
	}
	return claims.Subject, nil
}
