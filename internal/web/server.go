// Package web is the browser-facing frontend. Every page restores the session
// through sessiongate and the protected ones are guarded by account type.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/eventix/ticketing/internal/api/middleware"
	"github.com/eventix/ticketing/internal/core/domain"
	"github.com/eventix/ticketing/internal/sessiongate"
)

//go:embed templates/*.html
var templateFS embed.FS

// Authenticator is the slice of the API the frontend talks to.
type Authenticator interface {
	sessiongate.SessionChecker
	Login(ctx context.Context, t domain.AccountType, identifier, password string) (string, error)
	Verify(ctx context.Context, t domain.AccountType, token string) error
	ResetPassword(ctx context.Context, token, password, confirmPassword string) error
}

type Config struct {
	API          Authenticator
	SecureCookie bool
	Log          zerolog.Logger
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: map[string]*template.Template{}}
	for _, page := range []string{"login", "page", "reset"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

type pageData struct {
	Title   string
	Message string
	Error   string
	Token   string
	State   sessiongate.State
}

// NewServer builds the frontend Echo instance.
func NewServer(cfg Config) (*echo.Echo, error) {
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = r

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(cfg.Log))

	newGate := func(c echo.Context) *sessiongate.Gate {
		return sessiongate.New(
			sessiongate.NewCookieStore(c, cfg.SecureCookie),
			cfg.API,
			sessiongate.WithLogger(cfg.Log),
		)
	}
	e.Use(sessiongate.Restorer(newGate))

	opts := sessiongate.GuardOptions{LoginPath: "/login", NotAuthorizedPath: "/not-authorized"}
	page := func(title, msg string) echo.HandlerFunc {
		return func(c echo.Context) error {
			return c.Render(http.StatusOK, "page", pageData{Title: title, Message: msg, State: sessiongate.FromContext(c)})
		}
	}

	e.GET("/", func(c echo.Context) error { return c.Redirect(http.StatusFound, "/dashboard") })
	e.GET("/login", func(c echo.Context) error {
		if sessiongate.FromContext(c).IsAuth {
			return c.Redirect(http.StatusFound, "/dashboard")
		}
		return c.Render(http.StatusOK, "login", pageData{Title: "Login", State: sessiongate.FromContext(c)})
	})
	e.POST("/login", func(c echo.Context) error {
		t := domain.AccountType(c.FormValue("type"))
		if !t.Valid() {
			t = domain.AccountUser
		}

		raw, err := cfg.API.Login(c.Request().Context(), t, c.FormValue("data"), c.FormValue("password"))
		if err != nil {
			cfg.Log.Info().Err(err).Str("type", string(t)).Msg("frontend login failed")
			return c.Render(http.StatusUnauthorized, "login", pageData{Title: "Login", Error: "Login Failed"})
		}

		state, err := newGate(c).Login(c.Request().Context(), raw)
		if err != nil || !state.IsAuth {
			return c.Render(http.StatusUnauthorized, "login", pageData{Title: "Login", Error: "Login Failed"})
		}
		if state.Type == domain.AccountPromotor {
			return c.Redirect(http.StatusFound, "/promotor/dashboard")
		}
		return c.Redirect(http.StatusFound, "/dashboard")
	})
	e.POST("/logout", func(c echo.Context) error {
		if err := newGate(c).Logout(c.Request().Context()); err != nil {
			cfg.Log.Warn().Err(err).Msg("logout")
		}
		return c.Redirect(http.StatusFound, "/login")
	})
	// Landing pages for the links in verification and reset emails.
	verify := func(t domain.AccountType) echo.HandlerFunc {
		return func(c echo.Context) error {
			data := pageData{Title: "Verify account", State: sessiongate.FromContext(c)}
			if err := cfg.API.Verify(c.Request().Context(), t, c.Param("token")); err != nil {
				cfg.Log.Info().Err(err).Str("type", string(t)).Msg("frontend verify failed")
				data.Error = "This verification link is invalid or has expired."
				return c.Render(http.StatusBadRequest, "page", data)
			}
			data.Message = "Your account is verified. You can log in now."
			return c.Render(http.StatusOK, "page", data)
		}
	}
	e.GET("/verify/:token", verify(domain.AccountUser))
	e.GET("/promotor/verify/:token", verify(domain.AccountPromotor))

	e.GET("/reset-password/:token", func(c echo.Context) error {
		return c.Render(http.StatusOK, "reset", pageData{
			Title: "Reset password",
			Token: c.Param("token"),
			State: sessiongate.FromContext(c),
		})
	})
	e.POST("/reset-password/:token", func(c echo.Context) error {
		data := pageData{Title: "Reset password", Token: c.Param("token"), State: sessiongate.FromContext(c)}
		err := cfg.API.ResetPassword(c.Request().Context(), data.Token, c.FormValue("password"), c.FormValue("confirmPassword"))
		if err != nil {
			cfg.Log.Info().Err(err).Msg("frontend password reset failed")
			data.Error = "Reset Password Failed"
			return c.Render(http.StatusBadRequest, "reset", data)
		}
		return c.Render(http.StatusOK, "page", pageData{
			Title:   "Password updated",
			Message: "Your password has been changed. You can log in now.",
			State:   data.State,
		})
	})

	e.GET("/not-authorized", page("Not authorized", "Your account cannot open that page."))

	e.GET("/dashboard", page("Dashboard", "Welcome back."),
		sessiongate.Guard(sessiongate.AnyAuthenticated(), opts))
	e.GET("/account", page("Account", "Your tickets and referral code."),
		sessiongate.Guard(sessiongate.RequireType(domain.AccountUser), opts))
	e.GET("/promotor/dashboard", page("Promotor dashboard", "Your events and sales."),
		sessiongate.Guard(sessiongate.RequireType(domain.AccountPromotor), opts))

	return e, nil
}
