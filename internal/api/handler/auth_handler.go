package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventix/ticketing/internal/api/metrics"
	"github.com/eventix/ticketing/internal/core/domain"
	"github.com/eventix/ticketing/internal/core/ports"
)

// SessionCookie is the name of the httpOnly cookie holding the session token.
const SessionCookie = "token"

type AuthHandler struct {
	authService  ports.AuthService
	secureCookie bool
}

// NewAuthHandler returns an AuthHandler. secureCookie sets the Secure flag on
// the session cookie and should be true in production.
func NewAuthHandler(authService ports.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	return c.Validate(req)
}

// Register creates an unverified user and emails a verification link.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      plain
// @Param        body  body      registerUserRequest  true  "User registration details"
// @Success      201   {string}  string  "Register Success, please check your email"
// @Failure      400   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(string(domain.AccountUser), outcome(err)).Inc()
		return opError(OpRegister, err)
	}

	_, err := h.authService.RegisterUser(c.Request().Context(), ports.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	metrics.RegistrationsTotal.WithLabelValues(string(domain.AccountUser), outcome(err)).Inc()
	if err != nil {
		return opError(OpRegister, err)
	}

	return c.String(http.StatusCreated, "Register Success, please check your email")
}

// RegisterPromotor creates a promotor account.
//
// @Summary      Register a new promotor
// @Tags         auth
// @Accept       json
// @Produce      plain
// @Param        body  body      registerPromotorRequest  true  "Promotor registration details"
// @Success      201   {string}  string  "Register Success"
// @Failure      400   {object}  errorResponse
// @Router       /auth/promotor/register [post]
func (h *AuthHandler) RegisterPromotor(c echo.Context) error {
	var req registerPromotorRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(string(domain.AccountPromotor), outcome(err)).Inc()
		return opError(OpRegister, err)
	}

	_, err := h.authService.RegisterPromotor(c.Request().Context(), ports.RegisterInput{
		Username:        req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	metrics.RegistrationsTotal.WithLabelValues(string(domain.AccountPromotor), outcome(err)).Inc()
	if err != nil {
		return opError(OpRegister, err)
	}

	return c.String(http.StatusCreated, "Register Success")
}

// Login authenticates a user and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Username or email, and password"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	return h.login(c, domain.AccountUser, h.authService.LoginUser)
}

// LoginPromotor authenticates a promotor and sets the session cookie.
//
// @Summary      Promotor login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Name or email, and password"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/promotor/login [post]
func (h *AuthHandler) LoginPromotor(c echo.Context) error {
	return h.login(c, domain.AccountPromotor, h.authService.LoginPromotor)
}

type loginFunc func(ctx context.Context, identifier, password string) (*ports.LoginResult, error)

func (h *AuthHandler) login(c echo.Context, t domain.AccountType, fn loginFunc) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.LoginsTotal.WithLabelValues(string(t), outcome(err)).Inc()
		return opError(OpLogin, err)
	}

	res, err := fn(c.Request().Context(), req.Data, req.Password)
	metrics.LoginsTotal.WithLabelValues(string(t), outcome(err)).Inc()
	if err != nil {
		return opError(OpLogin, err)
	}

	c.SetCookie(h.sessionCookie(res.Token, res.ExpiresAt))
	return c.JSON(http.StatusOK, loginResponse{
		Message: "Login Success",
		Account: res.Account,
	})
}

func (h *AuthHandler) sessionCookie(value string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Round(time.Second).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// Verify redeems the token from a verification email.
//
// @Summary      Verify an account
// @Tags         auth
// @Produce      plain
// @Param        token  path      string  true  "Verification token"
// @Success      200    {string}  string  "Verify Success"
// @Failure      400    {object}  errorResponse
// @Router       /auth/verify/{token} [patch]
// @Router       /auth/promotor/verify/{token} [patch]
func (h *AuthHandler) Verify(c echo.Context) error {
	err := h.authService.VerifyAccount(c.Request().Context(), c.Param("token"))
	metrics.VerificationsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return opError(OpVerify, err)
	}
	return c.String(http.StatusOK, "Verify Success")
}

// Session returns the account behind the presented session token.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  sessionResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{Type: sess.Type, Account: sess.Account})
}

// Logout expires the session cookie. The token itself stays valid until it expires.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie := h.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, messageResponse{Message: "Logout Success"})
}

// ForgotPassword emails a single-use password reset link.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account type and username or email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/password/forgot [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return opError(OpForgot, err)
	}

	if err := h.authService.RequestPasswordReset(c.Request().Context(), domain.AccountType(req.Type), req.Data); err != nil {
		return opError(OpForgot, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Reset link sent, please check your email"})
}

// ResetPassword sets a new password using a reset token.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  path      string                true  "Reset token"
// @Param        body   body      resetPasswordRequest  true  "New password"
// @Success      200    {object}  messageResponse
// @Failure      400    {object}  errorResponse
// @Router       /auth/password/reset/{token} [patch]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return opError(OpReset, err)
	}

	if err := h.authService.ResetPassword(c.Request().Context(), c.Param("token"), req.Password, req.ConfirmPassword); err != nil {
		return opError(OpReset, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Reset Password Success"})
}

// Me returns the authenticated account. Mount behind Auth and RBAC.
//
// @Summary      Current account
// @Tags         accounts
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  domain.Account
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /users/me [get]
// @Router       /promotors/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Account)
}
