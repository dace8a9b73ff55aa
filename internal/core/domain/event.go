package domain

import "time"

// AuthEventKind names a security-relevant step in an account's lifecycle.
type AuthEventKind string

const (
	EventRegistered    AuthEventKind = "registered"
	EventVerified      AuthEventKind = "verified"
	EventLoginSuccess  AuthEventKind = "login_success"
	EventLoginFailed   AuthEventKind = "login_failed"
	EventResetRequest  AuthEventKind = "password_reset_requested"
	EventPasswordReset AuthEventKind = "password_reset"
)

// AuthEvent is one entry of the auth audit trail. AccountID is zero when the
// identifier did not match an account.
type AuthEvent struct {
	Kind        AuthEventKind
	AccountType AccountType
	AccountID   int64
	Identifier  string
	Reason      string
	Timestamp   time.Time
}
