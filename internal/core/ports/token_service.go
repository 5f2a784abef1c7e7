package ports

import (
	"time"

	"github.com/homestead/marketplace-api/internal/core/domain"
)

// TokenService issues and verifies signed bearer tokens.
type TokenService interface {
	// Issue signs a session token. A zero ttlOverride uses the account-type policy.
	Issue(userID string, accountType domain.AccountType, ttlOverride time.Duration) (token string, expiresAt time.Time, err error)
	IssuePasswordReset(userID string) (token string, expiresAt time.Time, err error)
	// Verify fails with domain.ErrTokenExpired or domain.ErrTokenInvalid.
	Verify(token string) (*domain.TokenIdentity, error)
	VerifyPasswordReset(token string) (userID string, err error)
}
