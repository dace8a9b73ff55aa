package sessiongate

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventix/ticketing/internal/core/domain"
)

// Requirement decides whether an authenticated state may see a page.
type Requirement func(State) bool

// AnyAuthenticated admits every signed-in account.
func AnyAuthenticated() Requirement {
	return func(State) bool { return true }
}

// RequireType admits only the listed account types.
func RequireType(types ...domain.AccountType) Requirement {
	return func(s State) bool {
		for _, t := range types {
			if s.Type == t {
				return true
			}
		}
		return false
	}
}

type GuardOptions struct {
	LoginPath         string
	NotAuthorizedPath string
}

func (o GuardOptions) withDefaults() GuardOptions {
	if o.LoginPath == "" {
		o.LoginPath = "/login"
	}
	if o.NotAuthorizedPath == "" {
		o.NotAuthorizedPath = "/not-authorized"
	}
	return o
}

const stateKey = "sessiongate.state"

// FromContext returns the state stored by Restorer.
func FromContext(c echo.Context) State {
	s, ok := c.Get(stateKey).(State)
	if !ok {
		return State{Loading: true}
	}
	return s
}

// Restorer runs a Gate for every request and stores the resolved state in
// the Echo context. newGate builds the gate for the request.
func Restorer(newGate func(c echo.Context) *Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(stateKey, newGate(c).Restore(c.Request().Context()))
			return next(c)
		}
	}
}

// Guard protects a page. While loading it renders nothing, unauthenticated
// visitors go to the login page and authenticated ones failing req go to the
// not-authorized page.
func Guard(req Requirement, opts GuardOptions) echo.MiddlewareFunc {
	opts = opts.withDefaults()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := FromContext(c)
			switch {
			case s.Loading:
				return c.NoContent(http.StatusNoContent)
			case !s.IsAuth:
				return c.Redirect(http.StatusFound, opts.LoginPath)
			case !req(s):
				return c.Redirect(http.StatusFound, opts.NotAuthorizedPath)
			}
			return next(c)
		}
	}
}
