package sessiongate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/eventix/ticketing/internal/core/domain"
)

func runGuard(state *State, req Requirement) *httptest.ResponseRecorder {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/page", nil), rec)
	if state != nil {
		c.Set(stateKey, *state)
	}
	h := Guard(req, GuardOptions{})(func(c echo.Context) error {
		return c.String(http.StatusOK, "page")
	})
	_ = h(c)
	return rec
}

func TestGuard(t *testing.T) {
	user := State{IsAuth: true, Type: domain.AccountUser, AccountID: 1}
	promotor := State{IsAuth: true, Type: domain.AccountPromotor, AccountID: 2}

	cases := []struct {
		name     string
		state    *State
		req      Requirement
		code     int
		location string
	}{
		{"loading renders nothing", nil, AnyAuthenticated(), http.StatusNoContent, ""},
		{"anonymous goes to login", &State{}, AnyAuthenticated(), http.StatusFound, "/login"},
		{"any authenticated", &promotor, AnyAuthenticated(), http.StatusOK, ""},
		{"matching type", &user, RequireType(domain.AccountUser), http.StatusOK, ""},
		{"wrong type", &promotor, RequireType(domain.AccountUser), http.StatusFound, "/not-authorized"},
		{"one of several types", &promotor, RequireType(domain.AccountUser, domain.AccountPromotor), http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := runGuard(tc.state, tc.req)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.location, rec.Header().Get("Location"))
		})
	}
}

func TestRestorer_StoresState(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	mw := Restorer(func(c echo.Context) *Gate {
		return New(NewCookieStore(c, false), &stubChecker{})
	})
	var got State
	_ = mw(func(c echo.Context) error {
		got = FromContext(c)
		return nil
	})(c)

	assert.Equal(t, State{}, got)
}
