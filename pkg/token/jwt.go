// Package token issues and verifies the signed session tokens handed to clients.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is the fixed lifetime of every issued token
const TTL = 7 * 24 * time.Hour

// ErrInvalidToken is returned for tokens with a bad signature, malformed
// payload, unexpected algorithm or past expiry.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed payload: the user id plus registered claims.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 tokens with a single process-wide secret.
type Service struct {
	secret []byte
	now    func() time.Time
}

// NewService creates a token service. secret must not be empty.
func NewService(secret string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	return &Service{secret: []byte(secret), now: time.Now}, nil
}

// WithClock returns a copy of s that reads the current time from now.
func (s *Service) WithClock(now func() time.Time) *Service {
	c := *s
	c.now = now
	return &c
}

// Issue returns a signed token for userID and its absolute expiry.
func (s *Service) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id must not be empty")
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(TTL)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the user id carried by the token.
func (s *Service) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !tok.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
