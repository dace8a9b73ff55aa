package ports

import (
	"context"
	"time"

	"github.com/eventix/ticketing/internal/core/domain"
)

// PasswordHasher is a one-way adaptive hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Compare returns false for a mismatch or a malformed hash.
	Compare(hash, plaintext string) bool
}

// TokenIssuer signs and verifies time-boxed tokens.
type TokenIssuer interface {
	Issue(claims domain.TokenClaims, ttl time.Duration) (string, time.Time, error)
	Verify(token string, purpose domain.TokenPurpose) (*domain.TokenClaims, error)
}

// LoginLimiter throttles repeated failed logins for one identifier.
type LoginLimiter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// TokenLedger enforces single use of a token ID.
type TokenLedger interface {
	// Consume marks id as used and reports whether this call was the first.
	Consume(ctx context.Context, id string, ttl time.Duration) (bool, error)
}
