package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eventix/ticketing/internal/api/handler"
	"github.com/eventix/ticketing/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// ErrorPolicy decides the status code and client message for a failed auth operation.
type ErrorPolicy interface {
	Resolve(op handler.Operation, err error) (int, string)
}

// CollapsedPolicy answers every failure with 400 and the operation's generic
// message. Verification failures carry the underlying error text.
type CollapsedPolicy struct{}

var collapsedMessages = map[handler.Operation]string{
	handler.OpRegister: "Register Failed",
	handler.OpLogin:    "Login Failed",
	handler.OpForgot:   "Forgot Password Failed",
	handler.OpReset:    "Reset Password Failed",
}

func (CollapsedPolicy) Resolve(op handler.Operation, err error) (int, string) {
	switch op {
	case handler.OpSession:
		return http.StatusUnauthorized, "Unauthorized"
	case handler.OpVerify:
		return http.StatusBadRequest, err.Error()
	}
	if msg, ok := collapsedMessages[op]; ok {
		return http.StatusBadRequest, msg
	}
	return http.StatusBadRequest, "Request Failed"
}

// DetailedPolicy maps each domain error to its own status code.
type DetailedPolicy struct{}

func (DetailedPolicy) Resolve(op handler.Operation, err error) (int, string) {
	if op == handler.OpSession {
		return http.StatusUnauthorized, "invalid session"
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "account already exists"
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, domain.ErrUnverified):
		return http.StatusForbidden, "account not verified"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too many attempts, try again later"
	}
	return http.StatusInternalServerError, "internal server error"
}

// PolicyFromName returns the policy configured by ERROR_POLICY.
func PolicyFromName(name string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "collapsed":
		return CollapsedPolicy{}, nil
	case "detailed":
		return DetailedPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown error policy %q", name)
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Keeps the status of Echo's own errors (bind failures, 404 from router, etc).
//   - Resolves auth operation failures through the configured policy.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(policy ErrorPolicy, log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, policy, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, policy ErrorPolicy, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var oe *handler.OperationError
	if errors.As(err, &oe) {
		code, msg := policy.Resolve(oe.Op, oe.Err)
		ev := log.Warn()
		if code >= http.StatusInternalServerError || !isDomainError(oe.Err) {
			ev = log.Error()
		}
		ev.Err(oe.Err).
			Str("op", string(oe.Op)).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Int("status", code).
			Msg("auth operation failed")
		return code, msg
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrConflict,
		domain.ErrAccountNotFound,
		domain.ErrUnverified,
		domain.ErrInvalidCredentials,
		domain.ErrInvalidToken,
		domain.ErrTooManyAttempts,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
