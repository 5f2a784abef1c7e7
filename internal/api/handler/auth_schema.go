package handler

import (
	"github.com/homestead/marketplace-api/internal/core/domain"
)

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// --- Request / Response types ---

type signUpRequest struct {
	FullName    string `json:"fullName"    validate:"required,min=2,max=100"`
	Email       string `json:"email"       validate:"required,email"`
	Password    string `json:"password"    validate:"required,min=6,max=72"`
	AccountType string `json:"accountType" validate:"omitempty,oneof=individual owner agent developer"`
}

type signInRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type callbackRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"      validate:"required,email"`
	ExternalID string `json:"externalId" validate:"required"`
}

type updateUserRequest struct {
	FullName    *string `json:"fullName"    validate:"omitempty,min=2,max=100"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=32"`
	AccountType *string `json:"accountType" validate:"omitempty,oneof=individual owner agent developer"`
}

func (r updateUserRequest) patch() domain.UserPatch {
	p := domain.UserPatch{FullName: r.FullName, PhoneNumber: r.PhoneNumber}
	if r.AccountType != nil {
		t := domain.AccountType(*r.AccountType)
		p.AccountType = &t
	}
	return p
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"       validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"`
	User      *domain.User `json:"user"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type updateUserResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token,omitempty"`
	ExpiresIn int64        `json:"expiresIn,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}
