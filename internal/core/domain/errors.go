package domain

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrOAuthAccountExists = errors.New("account uses external sign-in")
	ErrAccountInactive    = errors.New("account is not active")
	ErrWrongAuthMethod    = errors.New("operation not available for this sign-in method")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidResetToken  = errors.New("reset token is invalid or expired")

	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenInvalid    = errors.New("token invalid")
	ErrForbidden       = errors.New("access forbidden")

	ErrListingNotPermitted  = errors.New("individual accounts cannot list properties; switch to an owner, agent or developer account")
	ErrListingQuotaReached  = errors.New("listing limit reached for this account type")
	ErrPropertyNotFound     = errors.New("property not found")
	ErrSubmissionInProgress = errors.New("a submission with this idempotency key is already in progress")
	ErrMediaUpload          = errors.New("media upload failed")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationError carries every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// NewValidationError is a shorthand for a single-field failure.
func NewValidationError(field, message string, value any) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message, Value: value}}}
}
