package sessiongate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventix/ticketing/internal/core/domain"
	"github.com/eventix/ticketing/internal/pkg/token"
)

type stubChecker struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
	sess    *Session
}

func (s *stubChecker) CheckSession(ctx context.Context, raw string) (*Session, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.sess, nil
}

func issue(t *testing.T, purpose domain.TokenPurpose, ttl time.Duration) string {
	t.Helper()
	svc, err := token.NewJWTService("gate-secret")
	require.NoError(t, err)
	raw, _, err := svc.Issue(domain.TokenClaims{
		AccountID:   5,
		AccountType: domain.AccountPromotor,
		Purpose:     purpose,
	}, ttl)
	require.NoError(t, err)
	return raw
}

func TestGate_StartsLoading(t *testing.T) {
	g := New(NewMemoryStore(), &stubChecker{})
	assert.True(t, g.State().Loading)
}

func TestGate_RestoreWithoutToken(t *testing.T) {
	checker := &stubChecker{}
	g := New(NewMemoryStore(), checker)

	s := g.Restore(context.Background())
	assert.Equal(t, State{}, s)
	assert.Zero(t, checker.calls.Load())
}

func TestGate_RestoreValidToken(t *testing.T) {
	store := NewMemoryStore()
	raw := issue(t, domain.PurposeSession, time.Hour)
	require.NoError(t, store.Save(context.Background(), raw))

	checker := &stubChecker{sess: &Session{Type: domain.AccountPromotor, AccountID: 5}}
	g := New(store, checker)

	s := g.Restore(context.Background())
	assert.Equal(t, State{IsAuth: true, Type: domain.AccountPromotor, AccountID: 5}, s)
	assert.Equal(t, s, g.State())

	kept, _ := store.Load(context.Background())
	assert.Equal(t, raw, kept)
}

func TestGate_ExpiredTokenClearedWithoutRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), issue(t, domain.PurposeSession, time.Hour)))

	checker := &stubChecker{sess: &Session{Type: domain.AccountUser, AccountID: 5}}
	g := New(store, checker, WithClock(func() time.Time { return time.Now().Add(2 * time.Hour) }))

	s := g.Restore(context.Background())
	assert.False(t, s.IsAuth)
	assert.Zero(t, checker.calls.Load())

	kept, _ := store.Load(context.Background())
	assert.Empty(t, kept)
}

func TestGate_RejectsNonSessionTokens(t *testing.T) {
	for _, raw := range []string{"garbage", issue(t, domain.PurposeVerify, time.Hour)} {
		store := NewMemoryStore()
		require.NoError(t, store.Save(context.Background(), raw))
		checker := &stubChecker{sess: &Session{Type: domain.AccountUser, AccountID: 5}}

		s := New(store, checker).Restore(context.Background())
		assert.False(t, s.IsAuth)
		assert.Zero(t, checker.calls.Load())
	}
}

func TestGate_ServerRejectionClearsToken(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), issue(t, domain.PurposeSession, time.Hour)))

	g := New(store, &stubChecker{err: ErrSessionRejected})
	s := g.Restore(context.Background())

	assert.Equal(t, State{}, s)
	kept, _ := store.Load(context.Background())
	assert.Empty(t, kept)
}

func TestGate_ConcurrentRestoreSharesRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), issue(t, domain.PurposeSession, time.Hour)))

	checker := &stubChecker{
		release: make(chan struct{}),
		sess:    &Session{Type: domain.AccountUser, AccountID: 5},
	}
	g := New(store, checker)

	var wg sync.WaitGroup
	results := make([]State, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.Restore(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return checker.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(checker.release)
	wg.Wait()

	assert.Equal(t, int32(1), checker.calls.Load())
	for _, s := range results {
		assert.True(t, s.IsAuth)
	}
}

func TestGate_LoginLogout(t *testing.T) {
	store := NewMemoryStore()
	g := New(store, &stubChecker{sess: &Session{Type: domain.AccountPromotor, AccountID: 5}})

	s, err := g.Login(context.Background(), issue(t, domain.PurposeSession, time.Hour))
	require.NoError(t, err)
	assert.True(t, s.IsAuth)

	require.NoError(t, g.Logout(context.Background()))
	assert.Equal(t, State{}, g.State())
	kept, _ := store.Load(context.Background())
	assert.Empty(t, kept)
}

// staleChecker blocks on the stale token until released and then rejects
// it. Every other token is accepted at once.
type staleChecker struct {
	stale   string
	entered chan struct{}
	release chan struct{}
}

func (c *staleChecker) CheckSession(_ context.Context, raw string) (*Session, error) {
	if raw == c.stale {
		close(c.entered)
		<-c.release
		return nil, ErrSessionRejected
	}
	return &Session{Type: domain.AccountPromotor, AccountID: 5}, nil
}

func TestGate_LoginDuringStaleRestoreKeepsFreshToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	stale := issue(t, domain.PurposeSession, time.Hour)
	fresh := issue(t, domain.PurposeSession, time.Hour)
	require.NoError(t, store.Save(ctx, stale))

	checker := &staleChecker{stale: stale, entered: make(chan struct{}), release: make(chan struct{})}
	g := New(store, checker)

	restored := make(chan State, 1)
	go func() { restored <- g.Restore(ctx) }()
	<-checker.entered

	s, err := g.Login(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, s.IsAuth)

	close(checker.release)
	<-restored

	kept, _ := store.Load(ctx)
	assert.Equal(t, fresh, kept)
	assert.True(t, g.State().IsAuth)
	assert.True(t, g.Restore(ctx).IsAuth)
}

func TestGate_LogoutDuringRestoreWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, issue(t, domain.PurposeSession, time.Hour)))

	checker := &stubChecker{
		release: make(chan struct{}),
		sess:    &Session{Type: domain.AccountUser, AccountID: 5},
	}
	g := New(store, checker)

	restored := make(chan State, 1)
	go func() { restored <- g.Restore(ctx) }()
	require.Eventually(t, func() bool { return checker.calls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, g.Logout(ctx))
	close(checker.release)
	<-restored

	assert.Equal(t, State{}, g.State())
}

type failingStore struct{ MemoryStore }

func (*failingStore) Save(context.Context, string) error { return errors.New("disk full") }

func TestGate_LoginStoreFailure(t *testing.T) {
	g := New(&failingStore{}, &stubChecker{})
	_, err := g.Login(context.Background(), "tok")
	assert.Error(t, err)
}
