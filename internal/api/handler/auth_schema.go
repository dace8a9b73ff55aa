package handler

import "github.com/eventix/ticketing/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type registerUserRequest struct {
	Username        string `json:"username"        validate:"required"`
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type registerPromotorRequest struct {
	Name            string `json:"name"            validate:"required"`
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// loginRequest.Data is either the username (or promotor name) or the email.
type loginRequest struct {
	Data     string `json:"data"     validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Type string `json:"type" validate:"required,oneof=user promotor"`
	Data string `json:"data" validate:"required"`
}

type resetPasswordRequest struct {
	Password        string `json:"password"        validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// loginResponse carries no token: the session only travels in the httpOnly
// cookie.
type loginResponse struct {
	Message string          `json:"message"`
	Account *domain.Account `json:"account"`
}

type sessionResponse struct {
	Type    domain.AccountType `json:"type"`
	Account *domain.Account    `json:"account"`
}

type messageResponse struct {
	Message string `json:"message"`
}
