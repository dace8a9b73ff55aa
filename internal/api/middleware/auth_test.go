package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/eventix/ticketing/internal/api/handler"
	"github.com/eventix/ticketing/internal/core/domain"
	"github.com/eventix/ticketing/internal/core/ports"
)

type stubChecker struct {
	want string
}

func (s stubChecker) CheckSession(ctx context.Context, token string) (*ports.Session, error) {
	if token != s.want {
		return nil, domain.ErrInvalidToken
	}
	return &ports.Session{
		Type:    domain.AccountPromotor,
		Account: &domain.Account{ID: 42, Type: domain.AccountPromotor, Username: "acme"},
	}, nil
}

func TestAuthMiddleware_CookieToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: handler.SessionCookie, Value: "good"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Auth(stubChecker{want: "good"})
	next := mw(func(c echo.Context) error {
		if c.Get(handler.CtxAccountID) != int64(42) {
			t.Fatalf("unexpected account id: %v", c.Get(handler.CtxAccountID))
		}
		if c.Get(handler.CtxAccountType) != domain.AccountPromotor {
			t.Fatalf("unexpected account type: %v", c.Get(handler.CtxAccountType))
		}
		if _, ok := c.Get(handler.CtxSession).(*ports.Session); !ok {
			t.Fatalf("session not injected")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := next(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	next := Auth(stubChecker{want: "good"})(func(c echo.Context) error {
		called = true
		return nil
	})

	if err := next(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	err := Auth(stubChecker{want: "good"})(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	c := e.NewContext(req, httptest.NewRecorder())

	err := Auth(stubChecker{want: "good"})(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})(c)

	var oe *handler.OperationError
	if !errors.As(err, &oe) || oe.Op != handler.OpSession {
		t.Fatalf("expected session operation error, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
