package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/homestead/marketplace-api/internal/core/domain"
)

const (
	purposeSession       = "session"
	purposePasswordReset = "password_reset"

	// PasswordResetTTL is fixed regardless of account type.
	PasswordResetTTL = time.Hour

	defaultSessionTTL = 7 * 24 * time.Hour
)

// sessionTTLPolicy maps account types to session lifetimes. Agents get
// shorter sessions than individual users; other types use the default.
var sessionTTLPolicy = map[domain.AccountType]time.Duration{
	domain.AccountTypeAgent:      5 * 24 * time.Hour,
	domain.AccountTypeIndividual: 20 * 24 * time.Hour,
}

// Claims is the JWT payload for both session and password-reset tokens.
type Claims struct {
	AccountType string `json:"accountType,omitempty"`
	Purpose     string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService signs HS256 tokens.
type TokenService struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenService returns an error when secret is empty. A non-positive
// defaultTTL falls back to seven days.
func NewTokenService(secret string, defaultTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token service: signing secret is required")
	}
	if defaultTTL <= 0 {
		defaultTTL = defaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), defaultTTL: defaultTTL, now: time.Now}, nil
}

// SessionTTL resolves the policy table for accountType.
func (s *TokenService) SessionTTL(accountType domain.AccountType) time.Duration {
	if ttl, ok := sessionTTLPolicy[accountType]; ok {
		return ttl
	}
	return s.defaultTTL
}

func (s *TokenService) Issue(userID string, accountType domain.AccountType, ttlOverride time.Duration) (string, time.Time, error) {
	ttl := ttlOverride
	if ttl <= 0 {
		ttl = s.SessionTTL(accountType)
	}
	return s.sign(userID, string(accountType), purposeSession, ttl)
}

func (s *TokenService) IssuePasswordReset(userID string) (string, time.Time, error) {
	return s.sign(userID, "", purposePasswordReset, PasswordResetTTL)
}

func (s *TokenService) Verify(token string) (*domain.TokenIdentity, error) {
	claims, err := s.parse(token, purposeSession)
	if err != nil {
		return nil, err
	}
	return &domain.TokenIdentity{
		UserID:      claims.Subject,
		AccountType: domain.AccountType(claims.AccountType),
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func (s *TokenService) VerifyPasswordReset(token string) (string, error) {
	claims, err := s.parse(token, purposePasswordReset)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *TokenService) sign(userID, accountType, purpose string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		AccountType: accountType,
		Purpose:     purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *TokenService) parse(token, purpose string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.Purpose != purpose {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}
