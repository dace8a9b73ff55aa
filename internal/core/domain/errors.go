package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrUnverified         = errors.New("account not verified")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)
