// Package token issues and verifies the HS256 tokens used for sessions,
// email verification and password reset.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/eventix/ticketing/internal/core/domain"
)

// All verification failures wrap domain.ErrInvalidToken.
var (
	ErrMalformed        = fmt.Errorf("%w: malformed", domain.ErrInvalidToken)
	ErrInvalidSignature = fmt.Errorf("%w: signature invalid", domain.ErrInvalidToken)
	ErrExpired          = fmt.Errorf("%w: expired", domain.ErrInvalidToken)
	ErrWrongPurpose     = fmt.Errorf("%w: wrong purpose", domain.ErrInvalidToken)
)

var ErrEmptySecret = errors.New("token: signing secret is empty")

type claims struct {
	AccountType string `json:"act"`
	Purpose     string `json:"pur"`
	jwt.RegisteredClaims
}

// JWTService signs tokens with a single process-wide secret.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

type Option func(*JWTService)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) { s.now = now }
}

func NewJWTService(secret string, opts ...Option) (*JWTService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	s := &JWTService{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs c with an expiry of ttl from now. ID and IssuedAt are filled in.
func (s *JWTService) Issue(c domain.TokenClaims, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		AccountType: string(c.AccountType),
		Purpose:     string(c.Purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(c.AccountID, 10),
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := tkn.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, expiry and purpose.
func (s *JWTService) Verify(raw string, purpose domain.TokenPurpose) (*domain.TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var c claims
	_, err := parser.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	out, err := toDomain(&c)
	if err != nil {
		return nil, err
	}
	if out.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return out, nil
}

// Decode reads the claims of raw WITHOUT verifying its signature. Only
// clients that cannot hold the secret should use it.
func Decode(raw string) (*domain.TokenClaims, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &c); err != nil {
		return nil, ErrMalformed
	}
	return toDomain(&c)
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return ErrMalformed
	}
}

func toDomain(c *claims) (*domain.TokenClaims, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrMalformed
	}
	out := &domain.TokenClaims{
		AccountID:   id,
		AccountType: domain.AccountType(c.AccountType),
		Purpose:     domain.TokenPurpose(c.Purpose),
		ID:          c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}
