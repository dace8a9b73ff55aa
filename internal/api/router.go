package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/eventix/ticketing/docs"
	"github.com/eventix/ticketing/internal/api/handler"
	"github.com/eventix/ticketing/internal/api/middleware"
	"github.com/eventix/ticketing/internal/core/domain"
	"github.com/eventix/ticketing/internal/core/ports"
)

// RouterDeps carries everything the HTTP layer needs. Registerer and Gatherer
// default to the global Prometheus registry.
type RouterDeps struct {
	Auth         ports.AuthService
	Policy       ErrorPolicy
	Log          zerolog.Logger
	SecureCookie bool
	Checks       map[string]handler.Checker
	Registerer   prometheus.Registerer
	Gatherer     prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	if deps.Policy == nil {
		deps.Policy = CollapsedPolicy{}
	}
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Policy, deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "ticketing",
		Subsystem:  "http",
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			p := c.Path()
			return p == "/metrics" || p == "/health" || p == "/health/ready"
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.SecureCookie)
	healthHandler := handler.NewHealthHandler(deps.Checks)
	requireSession := middleware.Auth(deps.Auth)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.PATCH("/verify/:token", authHandler.Verify)
	auth.POST("/promotor/register", authHandler.RegisterPromotor)
	auth.POST("/promotor/login", authHandler.LoginPromotor)
	auth.PATCH("/promotor/verify/:token", authHandler.Verify)
	auth.GET("/session", authHandler.Session, requireSession)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/password/forgot", authHandler.ForgotPassword)
	auth.PATCH("/password/reset/:token", authHandler.ResetPassword)

	// --- Role-guarded routes ---
	e.GET("/users/me", authHandler.Me, requireSession, middleware.RBAC(domain.AccountUser))
	e.GET("/promotors/me", authHandler.Me, requireSession, middleware.RBAC(domain.AccountPromotor))

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
