package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eventix/ticketing/internal/api/handler"
	"github.com/eventix/ticketing/internal/core/ports"
)

// SessionChecker resolves a session token to the account behind it.
type SessionChecker interface {
	CheckSession(ctx context.Context, token string) (*ports.Session, error)
}

// Auth reads the session token from the cookie or a Bearer header, checks it
// against the store and injects the session into context.
func Auth(checker SessionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
			}

			sess, err := checker.CheckSession(c.Request().Context(), raw)
			if err != nil {
				return &handler.OperationError{Op: handler.OpSession, Err: err}
			}

			c.Set(handler.CtxAccountID, sess.Account.ID)
			c.Set(handler.CtxAccountType, sess.Type)
			c.Set(handler.CtxSession, sess)

			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	if ck, err := c.Cookie(handler.SessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}

	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
