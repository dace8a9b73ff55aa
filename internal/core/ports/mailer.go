package ports

import (
	"context"
	"time"
)

// VerificationMail is the data rendered into the account verification email.
type VerificationMail struct {
	To        string
	Name      string
	Link      string
	ExpiresIn time.Duration
}

// PasswordResetMail is the data rendered into the password reset email.
type PasswordResetMail struct {
	To        string
	Name      string
	Link      string
	ExpiresIn time.Duration
}

// Mailer renders and dispatches transactional emails.
type Mailer interface {
	SendVerification(ctx context.Context, m VerificationMail) error
	SendPasswordReset(ctx context.Context, m PasswordResetMail) error
}
