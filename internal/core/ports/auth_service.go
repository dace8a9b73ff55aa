package ports

import (
	"context"
	"time"

	"github.com/eventix/ticketing/internal/core/domain"
)

// RegisterInput carries the registration form of either account type.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *domain.Account
}

// Session is the authoritative identity behind a session token.
type Session struct {
	Type    domain.AccountType
	Account *domain.Account
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*domain.Account, error)
	RegisterPromotor(ctx context.Context, in RegisterInput) (*domain.Account, error)
	VerifyAccount(ctx context.Context, token string) error
	LoginUser(ctx context.Context, identifier, password string) (*LoginResult, error)
	LoginPromotor(ctx context.Context, identifier, password string) (*LoginResult, error)
	CheckSession(ctx context.Context, token string) (*Session, error)
	RequestPasswordReset(ctx context.Context, accountType domain.AccountType, identifier string) error
	ResetPassword(ctx context.Context, token, password, confirmPassword string) error
}
