package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginKeyPrefix = "login_failures:"

// failureScript increments the counter and starts the window on the first failure.
var failureScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// LoginLimiter counts failed logins per key inside a fixed window.
// Key format: login_failures:<account_type>:<identifier>
type LoginLimiter struct {
	client      redis.Cmdable
	maxAttempts int
	window      time.Duration
}

// NewLoginLimiter returns a limiter that blocks after maxAttempts failures
// within window. maxAttempts <= 0 disables blocking.
func NewLoginLimiter(client redis.Cmdable, maxAttempts int, window time.Duration) *LoginLimiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

func (l *LoginLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	if l.maxAttempts <= 0 {
		return false, nil
	}
	n, err := l.client.Get(ctx, loginKeyPrefix+key).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("login limiter get: %w", err)
	}
	return n >= l.maxAttempts, nil
}

func (l *LoginLimiter) RecordFailure(ctx context.Context, key string) error {
	if err := failureScript.Run(ctx, l.client, []string{loginKeyPrefix + key}, l.window.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("login limiter record: %w", err)
	}
	return nil
}

func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, loginKeyPrefix+key).Err()
}
