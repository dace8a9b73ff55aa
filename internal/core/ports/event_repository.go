package ports

import (
	"context"

	"github.com/eventix/ticketing/internal/core/domain"
)

// AuditLog persists the auth audit trail. Writes are best effort.
type AuditLog interface {
	Record(ctx context.Context, event *domain.AuthEvent) error
}
