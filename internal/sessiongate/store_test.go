package sessiongate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "token")
	s := NewFileStore(path)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Save(ctx, "abc.def.ghi"))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCookieStore(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	s := NewCookieStore(e.NewContext(req, rec), true)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, s.Clear(context.Background()))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}

func TestCookieStore_NoCookie(t *testing.T) {
	e := echo.New()
	s := NewCookieStore(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()), false)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCookieStore_SaveVisibleToLoad(t *testing.T) {
	e := echo.New()
	s := NewCookieStore(e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), httptest.NewRecorder()), false)

	require.NoError(t, s.Save(context.Background(), "fresh"))
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}
