package handler

import (
	"errors"

	"github.com/eventix/ticketing/internal/core/domain"
)

// Operation names the auth operation a failure belongs to. The HTTP error
// handler uses it to pick the client-facing message.
type Operation string

const (
	OpRegister Operation = "register"
	OpLogin    Operation = "login"
	OpVerify   Operation = "verify"
	OpSession  Operation = "session"
	OpForgot   Operation = "forgot_password"
	OpReset    Operation = "reset_password"
)

// OperationError ties a service error to the operation that produced it.
type OperationError struct {
	Op  Operation
	Err error
}

func (e *OperationError) Error() string {
	return string(e.Op) + ": " + e.Err.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func opError(op Operation, err error) error {
	return &OperationError{Op: op, Err: err}
}

// outcome converts an error into a metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnverified):
		return "unverified"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	default:
		return "error"
	}
}
