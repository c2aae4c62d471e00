package handler

import "github.com/userdesk/admin-console/internal/core/domain"

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string        `json:"token,omitempty"`
	User  *domain.Actor `json:"user,omitempty"`
}
