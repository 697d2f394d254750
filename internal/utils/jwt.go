// Package utils provides helpers for token creation and password hashing.
package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/expense-tracker/internal/model"
)

// TokenLifetime is the fixed validity window of an issued token.
const TokenLifetime = 24 * time.Hour

// ErrInvalidToken is returned by SubjectOf for tokens that do not validate.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of an access token.  Email and Name are display
// only; authorization relies on the subject alone.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 signed tokens.  It holds no
// state besides the signing key and is safe for concurrent use.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService returns a TokenService signing with secret.  The length
// of the secret is checked when the configuration is loaded.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// Issue builds and signs a token for u.  The subject is the decimal form of
// the user id; iat is now and exp is now plus TokenLifetime.
func (s *TokenService) Issue(u *model.User) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		Email: u.Email,
		Name:  u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate reports whether token is well formed, signed with the configured
// key using HS256 and not yet expired.
func (s *TokenService) Validate(token string) bool {
	_, err := s.parse(token)
	return err == nil
}

// SubjectOf returns the user id carried by token.  Callers are expected to
// have checked the token with Validate first.
func (s *TokenService) SubjectOf(token string) (uint64, error) {
	claims, err := s.parse(token)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return id, nil
}

func (s *TokenService) parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
