package ports

import (
	"context"

	"github.com/eventix/ticketing/internal/core/domain"
)

// AccountRepository defines persistence for one account table (users or promotors).
type AccountRepository interface {
	// Create inserts an unverified account and assigns its numeric ID.
	// Returns domain.ErrConflict when the username or email is taken.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// FindByIdentifier matches identifier against username OR email.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	// ExistsByUsernameOrEmail reports whether either value is already taken.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	// MarkVerified sets isVerified = true. It never clears the flag.
	MarkVerified(ctx context.Context, id int64) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	// Delete removes an account. Returns domain.ErrAccountNotFound when absent.
	Delete(ctx context.Context, id int64) error
}
