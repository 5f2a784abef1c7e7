package service

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/homestead/marketplace-api/internal/core/domain"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// HashPassword hashes a plaintext password with a fresh bcrypt salt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", domain.NewValidationError("password", "password is required", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.NewValidationError("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes), nil)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares candidate against the user's stored hash.
// External-identity accounts never accept password checks.
func VerifyPassword(u *domain.User, candidate string) error {
	if u.AuthMethod != domain.AuthMethodLocal {
		return domain.ErrWrongAuthMethod
	}
	if u.PasswordHash == "" {
		return domain.ErrInvalidCredentials
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	return nil
}
