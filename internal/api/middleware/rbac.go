package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventix/ticketing/internal/api/handler"
	"github.com/eventix/ticketing/internal/core/domain"
)

// RBAC admits only the listed account types. Mount after Auth.
func RBAC(allowedTypes ...domain.AccountType) echo.MiddlewareFunc {
	allowed := make(map[domain.AccountType]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			t, _ := c.Get(handler.CtxAccountType).(domain.AccountType)
			if _, ok := allowed[t]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
