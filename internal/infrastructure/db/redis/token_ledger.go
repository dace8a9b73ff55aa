package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const ledgerKeyPrefix = "token_used:"

// TokenLedger records redeemed token IDs until the token itself would expire.
// Key format: token_used:<jti>
type TokenLedger struct {
	client redis.Cmdable
}

func NewTokenLedger(client redis.Cmdable) *TokenLedger {
	return &TokenLedger{client: client}
}

// Consume reports true only for the first redemption of id.
func (l *TokenLedger) Consume(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if id == "" {
		return false, nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	ok, err := l.client.SetNX(ctx, ledgerKeyPrefix+id, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("token ledger: %w", err)
	}
	return ok, nil
}
