package ports

import (
	"context"
	"time"

	"github.com/homestead/marketplace-api/internal/core/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail matches case-insensitively; callers may pass any casing.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	// FindByResetToken returns the user holding token only while it is unexpired.
	FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error)

	// Create fails with domain.ErrUserExists on a duplicate email or external
	// id and with *domain.ValidationError when credentials are incomplete.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Update persists the mutable profile fields of user.
	Update(ctx context.Context, user *domain.User) error
	// SetPasswordHash stores hash and clears any outstanding reset token.
	SetPasswordHash(ctx context.Context, id, hash string) error
	SetResetToken(ctx context.Context, id, token string, expires time.Time) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	IncrementListingCount(ctx context.Context, id string, delta int) error
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, limit int) ([]*domain.User, int64, error)
}
