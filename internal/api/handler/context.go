package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventix/ticketing/internal/core/ports"
)

// Context keys set by the Auth middleware.
const (
	CtxAccountID   = "account_id"
	CtxAccountType = "account_type"
	CtxSession     = "session"
)

// ctxSession extracts the session injected by the Auth middleware. Its
// absence means the route was mounted without the middleware.
func ctxSession(c echo.Context) (*ports.Session, error) {
	sess, _ := c.Get(CtxSession).(*ports.Session)
	if sess == nil || sess.Account == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return sess, nil
}
