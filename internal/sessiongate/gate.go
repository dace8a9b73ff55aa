// Package sessiongate restores and guards a client-side session. The token is
// decoded locally for a cheap expiry check, but only the API decides whether
// it is still valid.
package sessiongate

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/eventix/ticketing/internal/core/domain"
	"github.com/eventix/ticketing/internal/pkg/token"
)

// State is the client's view of the session. Loading stays true until the
// first Restore resolves.
type State struct {
	IsAuth    bool
	Type      domain.AccountType
	AccountID int64
	Loading   bool
}

type Gate struct {
	store   TokenStore
	checker SessionChecker
	now     func() time.Time
	log     zerolog.Logger

	group singleflight.Group
	// storeMu serialises Login's save with drop's compare-and-clear.
	storeMu sync.Mutex

	mu    sync.RWMutex
	state State
	// gen changes on Login and Logout. A restore only commits its result
	// when gen is what it was when the restore started.
	gen uint64
}

type Option func(*Gate)

func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func WithLogger(log zerolog.Logger) Option {
	return func(g *Gate) { g.log = log }
}

func New(store TokenStore, checker SessionChecker, opts ...Option) *Gate {
	g := &Gate{
		store:   store,
		checker: checker,
		now:     time.Now,
		log:     zerolog.Nop(),
		state:   State{Loading: true},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current session state.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

const restoreKey = "restore"

// Restore re-establishes the session from the stored token. Concurrent calls
// share one round-trip. Any failure clears the stored token.
func (g *Gate) Restore(ctx context.Context) State {
	v, _, _ := g.group.Do(restoreKey, func() (any, error) {
		return g.restore(ctx), nil
	})
	return v.(State)
}

func (g *Gate) restore(ctx context.Context) State {
	gen := g.generation()

	raw, err := g.store.Load(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("load session token")
		g.storeMu.Lock()
		if g.generation() == gen {
			if err := g.store.Clear(ctx); err != nil {
				g.log.Warn().Err(err).Msg("clear session token")
			}
		}
		g.storeMu.Unlock()
		return g.commit(gen, State{})
	}
	if raw == "" {
		return g.commit(gen, State{})
	}

	claims, err := token.Decode(raw)
	if err != nil || claims.Purpose != domain.PurposeSession {
		g.log.Debug().Err(err).Msg("stored token is not a session token")
		return g.drop(ctx, gen, raw)
	}
	if !claims.ExpiresAt.IsZero() && !g.now().Before(claims.ExpiresAt) {
		g.log.Debug().Time("expired_at", claims.ExpiresAt).Msg("stored session expired")
		return g.drop(ctx, gen, raw)
	}

	sess, err := g.checker.CheckSession(ctx, raw)
	if err != nil {
		g.log.Info().Err(err).Msg("session check failed")
		return g.drop(ctx, gen, raw)
	}

	return g.commit(gen, State{IsAuth: true, Type: sess.Type, AccountID: sess.AccountID})
}

// Login stores a freshly issued token and restores from it. It never joins a
// restore that is already running for an older token.
func (g *Gate) Login(ctx context.Context, raw string) (State, error) {
	g.storeMu.Lock()
	err := g.store.Save(ctx, raw)
	if err == nil {
		g.bump(nil)
	}
	g.storeMu.Unlock()
	if err != nil {
		return g.State(), err
	}

	g.group.Forget(restoreKey)
	return g.restore(ctx), nil
}

// Logout forgets the token locally.
func (g *Gate) Logout(ctx context.Context) error {
	g.storeMu.Lock()
	err := g.store.Clear(ctx)
	g.bump(&State{})
	g.storeMu.Unlock()
	return err
}

// drop clears the store only if it still holds raw, then commits the
// unauthenticated state.
func (g *Gate) drop(ctx context.Context, gen uint64, raw string) State {
	g.storeMu.Lock()
	current, err := g.store.Load(ctx)
	if err == nil && current == raw {
		err = g.store.Clear(ctx)
	}
	g.storeMu.Unlock()
	if err != nil {
		g.log.Warn().Err(err).Msg("clear session token")
	}
	return g.commit(gen, State{})
}

func (g *Gate) generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.gen
}

func (g *Gate) bump(s *State) {
	g.mu.Lock()
	g.gen++
	if s != nil {
		g.state = *s
	}
	g.mu.Unlock()
}

// commit stores s unless a Login or Logout happened since gen was read, in
// which case the newer state wins.
func (g *Gate) commit(gen uint64, s State) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		return g.state
	}
	g.state = s
	return s
}
