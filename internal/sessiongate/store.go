package sessiongate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// TokenStore persists the session token on the client side. Load returns ""
// when no token is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	return s.Save(ctx, "")
}

// FileStore keeps the token in a single file readable only by its owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *FileStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// CookieName is the cookie the API sets on login.
const CookieName = "token"

// CookieStore reads and writes the token cookie of a single Echo request.
// A token saved or cleared during the request is what later Loads see.
type CookieStore struct {
	c       echo.Context
	secure  bool
	maxAge  time.Duration
	written *string
}

func NewCookieStore(c echo.Context, secure bool) *CookieStore {
	return &CookieStore{c: c, secure: secure, maxAge: 24 * time.Hour}
}

func (s *CookieStore) Load(context.Context) (string, error) {
	if s.written != nil {
		return *s.written, nil
	}
	ck, err := s.c.Cookie(CookieName)
	if err != nil {
		return "", nil
	}
	return ck.Value, nil
}

func (s *CookieStore) Save(_ context.Context, token string) error {
	s.written = &token
	s.c.SetCookie(s.cookie(token, int(s.maxAge.Seconds())))
	return nil
}

func (s *CookieStore) Clear(context.Context) error {
	empty := ""
	s.written = &empty
	s.c.SetCookie(s.cookie("", -1))
	return nil
}

func (s *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
