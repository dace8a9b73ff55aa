package domain

import "time"

// TokenPurpose scopes a signed token to one use so a verification link can
// never be replayed as a session.
type TokenPurpose string

const (
	PurposeSession TokenPurpose = "session"
	PurposeVerify  TokenPurpose = "verify"
	PurposeReset   TokenPurpose = "reset"
)

// TokenClaims is the identity carried by a signed token.
type TokenClaims struct {
	AccountID   int64
	AccountType AccountType
	Purpose     TokenPurpose
	ID          string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}
