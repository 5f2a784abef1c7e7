package ports

import (
	"context"
	"time"

	"github.com/homestead/marketplace-api/internal/core/domain"
)

// SignUpInput is a local account registration.
type SignUpInput struct {
	FullName    string
	Email       string
	Password    string
	AccountType domain.AccountType // optional
}

// ExternalCallbackInput is the identity asserted by the OAuth provider after
// the server-side SDK validated it.
type ExternalCallbackInput struct {
	FirstName  string
	LastName   string
	Email      string
	ExternalID string
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// AuthResult is returned by every successful sign-in path.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// UpdateResult carries a fresh token only when the account type changed.
type UpdateResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	ExternalCallback(ctx context.Context, in ExternalCallbackInput) (*AuthResult, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdateUser(ctx context.Context, userID string, patch domain.UserPatch) (*UpdateResult, error)
	ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	SignOut(ctx context.Context, userID string) error
	DeleteAccount(ctx context.Context, userID string) error
}

// AdminService covers the operator-only user management surface.
type AdminService interface {
	ListUsers(ctx context.Context, page, limit int) (*UserPage, error)
	SetStatus(ctx context.Context, userID string, status domain.AccountStatus) (*domain.User, error)
}

type UserPage struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}
