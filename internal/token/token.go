// Package token issues and validates signed bearer tokens.
package token

import (
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ecoreceipt/ecoreceipt/internal/errs"
)

// Service signs and verifies HS256 JWTs with a single process-wide key.
// Rotating the key invalidates every outstanding token; there is no
// revocation list, tokens die only by expiry.
type Service struct {
	signKey []byte
	ttl     time.Duration
}

// NewService constructs a token service. ttl bounds the validity of every
// issued token.
func NewService(signKey []byte, ttl time.Duration) *Service {
	return &Service{signKey: signKey, ttl: ttl}
}

// Issue creates a signed HS256 JWT for the given subject.
func (s *Service) Issue(subject uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}

// Validate verifies signature and expiry and returns the embedded subject.
// Every failure mode (malformed, wrong method, bad signature, expired, bad
// subject) maps to errs.ErrUnauthorized; callers must not learn which check
// failed. Expiry is strict: no leeway.
func (s *Service) Validate(token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, errs.ErrUnauthorized
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return id, nil
}
